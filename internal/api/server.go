package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zankke/first-ent/internal/news"
	"github.com/zankke/first-ent/logger"
	"github.com/zankke/first-ent/services/store"
)

// Crawler is the orchestrator surface the trigger routes drive
type Crawler interface {
	RunForArtistID(ctx context.Context, id int64) (string, int, error)
	RunForAllActive(ctx context.Context) (news.CrawlResult, error)
}

// Scheduler is the scheduler control surface
type Scheduler interface {
	Start() error
	Stop()
	RunManual()
	IsRunning() bool
	NextRunTime() string
}

// Handler exposes the crawl trigger and scheduler control endpoints.
// Everything else about the surrounding web application (auth, CORS,
// listing routes) lives outside this service.
type Handler struct {
	crawler   Crawler
	scheduler Scheduler
	log       *logger.Logger
}

// NewHandler creates the route handler
func NewHandler(crawler Crawler, scheduler Scheduler) *Handler {
	return &Handler{
		crawler:   crawler,
		scheduler: scheduler,
		log:       logger.ForAPI(),
	}
}

// Register mounts the news routes on the engine
func (h *Handler) Register(r *gin.Engine) {
	group := r.Group("/api/news")
	group.POST("/crawl", h.CrawlNow)
	group.GET("/scheduler/status", h.SchedulerStatus)
	group.POST("/scheduler/start", h.StartScheduler)
	group.POST("/scheduler/stop", h.StopScheduler)
	group.POST("/scheduler/run", h.RunSchedulerManual)
}

// NewRouter builds a gin engine with the news routes mounted
func NewRouter(crawler Crawler, scheduler Scheduler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	NewHandler(crawler, scheduler).Register(r)
	return r
}

type crawlRequest struct {
	ArtistID *int64 `json:"artist_id"`
}

// CrawlNow handles POST /api/news/crawl. With an artist_id it crawls one
// artist; without, every active artist.
func (h *Handler) CrawlNow(c *gin.Context) {
	var req crawlRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if req.ArtistID != nil {
		name, savedCount, err := h.crawler.RunForArtistID(c.Request.Context(), *req.ArtistID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "아티스트를 찾을 수 없습니다"})
			return
		}
		if err != nil {
			h.log.Error().Err(err).Int64("artist_id", *req.ArtistID).Msg("뉴스 크롤링 중 오류")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":     name + "에 대한 뉴스 크롤링이 완료되었습니다.",
			"artist_name": name,
			"saved_count": savedCount,
		})
		return
	}

	results, err := h.crawler.RunForAllActive(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("뉴스 크롤링 중 오류")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "모든 아티스트에 대한 뉴스 크롤링이 완료되었습니다.",
		"results":    results,
		"total_news": results.Total(),
	})
}

// SchedulerStatus handles GET /api/news/scheduler/status
func (h *Handler) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"is_running":    h.scheduler.IsRunning(),
		"next_run_time": h.scheduler.NextRunTime(),
	})
}

// StartScheduler handles POST /api/news/scheduler/start
func (h *Handler) StartScheduler(c *gin.Context) {
	if err := h.scheduler.Start(); err != nil {
		h.log.Error().Err(err).Msg("스케줄러 시작 중 오류")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "뉴스 크롤링 스케줄러가 시작되었습니다.",
		"next_run_time": h.scheduler.NextRunTime(),
	})
}

// StopScheduler handles POST /api/news/scheduler/stop
func (h *Handler) StopScheduler(c *gin.Context) {
	h.scheduler.Stop()
	c.JSON(http.StatusOK, gin.H{"message": "뉴스 크롤링 스케줄러가 중지되었습니다."})
}

// RunSchedulerManual handles POST /api/news/scheduler/run
func (h *Handler) RunSchedulerManual(c *gin.Context) {
	h.scheduler.RunManual()
	c.JSON(http.StatusOK, gin.H{"message": "수동 뉴스 크롤링이 실행되었습니다."})
}
