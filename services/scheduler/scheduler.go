package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zankke/first-ent/internal/news"
	"github.com/zankke/first-ent/logger"
)

const (
	// timeFormat is the human-readable next-run format exposed to callers
	timeFormat = "2006-01-02 15:04:05"
	// noNextRun is returned when nothing is scheduled
	noNextRun = "N/A"

	defaultStopWait = 5 * time.Second
)

// CrawlFunc runs one full crawl over all active artists
type CrawlFunc func(ctx context.Context) (news.CrawlResult, error)

// Scheduler triggers the crawl on a recurring cron schedule. It is an
// explicit, constructed object with its own lifecycle; the composition
// root owns the single instance.
type Scheduler struct {
	spec     string
	job      CrawlFunc
	stopWait time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	running bool
}

// New creates a scheduler for the given cron spec (standard 5-field
// syntax, e.g. "0 5 * * *" for 05:00 daily).
func New(spec string, job CrawlFunc) *Scheduler {
	return &Scheduler{
		spec:     spec,
		job:      job,
		stopWait: defaultStopWait,
		log:      logger.ForScheduler(),
	}
}

// Start begins the background recurring trigger. Calling Start while
// already running logs a warning and does nothing.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn().Msg("스케줄러가 이미 실행 중입니다")
		return nil
	}

	c := cron.New()
	entryID, err := c.AddFunc(s.spec, s.runJob)
	if err != nil {
		return err
	}
	c.Start()

	s.cron = c
	s.entryID = entryID
	s.running = true

	s.log.Info().Str("schedule", s.spec).Msg("뉴스 크롤링 스케줄러 실행 시작")
	return nil
}

// Stop halts the recurring trigger. It waits up to the bounded stop
// window for an in-flight job; the job itself is not interrupted, it
// just finishes without a scheduler attached.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	ctx := c.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(s.stopWait):
		s.log.Warn().Msg("크롤링 작업이 아직 실행 중, 대기 시간 초과")
	}

	s.log.Info().Msg("스케줄러가 중지되었습니다")
}

// RunManual invokes the crawl job immediately, outside of the schedule.
// The next scheduled fire time is unaffected.
func (s *Scheduler) RunManual() {
	s.log.Info().Msg("수동 뉴스 크롤링 실행")
	s.runJob()
}

// IsRunning reports whether the recurring trigger is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRunTime returns the next scheduled fire time, or "N/A" when the
// scheduler is not running.
func (s *Scheduler) NextRunTime() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.cron == nil {
		return noNextRun
	}
	entry := s.cron.Entry(s.entryID)
	if entry.Next.IsZero() {
		return noNextRun
	}
	return entry.Next.Format(timeFormat)
}

// runJob executes one crawl. A panic or error inside the job must never
// kill the background loop; it is recovered and logged here, at the job
// boundary.
func (s *Scheduler) runJob() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("크롤링 작업 중 예기치 않은 오류")
		}
	}()

	s.log.Info().Msg("[스케줄러] 뉴스 크롤링 시작")
	start := time.Now()

	results, err := s.job(context.Background())
	if err != nil {
		s.log.Error().Err(err).Msg("[스케줄러] 뉴스 크롤링 실패")
		return
	}

	s.log.Info().
		Int("artists", len(results)).
		Int("total_saved", results.Total()).
		Dur("elapsed", time.Since(start)).
		Msg("[스케줄러] 뉴스 크롤링 완료")
}
