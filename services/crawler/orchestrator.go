package crawler

import (
	"context"
	"encoding/json"

	"github.com/zankke/first-ent/internal/news"
	"github.com/zankke/first-ent/internal/search"
	"github.com/zankke/first-ent/logger"
	errs "github.com/zankke/first-ent/pkg/errors"
	"github.com/zankke/first-ent/services/publisher"
	"github.com/zankke/first-ent/services/store"
)

// Enricher optionally fills missing article metadata before persistence
type Enricher interface {
	Enrich(ctx context.Context, items []news.Item) []news.Item
}

// Store is the persistence surface the orchestrator drives
type Store interface {
	store.NewsStore
	store.ArtistReader
}

// Orchestrator sequences one crawl: search, parse, enrich, dedup-save,
// publish. It never panics out of a run; errors are logged and reported
// as a zero count, so a broken artist cannot take down its siblings.
type Orchestrator struct {
	searcher search.Provider
	parser   *search.Parser
	store    Store
	pub      publisher.Publisher // optional
	enricher Enricher            // optional
	log      *logger.Logger
}

// NewOrchestrator creates a crawl orchestrator. pub and enricher may be
// nil; the corresponding stages are skipped.
func NewOrchestrator(searcher search.Provider, parser *search.Parser, st Store, pub publisher.Publisher, enricher Enricher) *Orchestrator {
	if parser == nil {
		parser = search.NewParser(nil)
	}
	return &Orchestrator{
		searcher: searcher,
		parser:   parser,
		store:    st,
		pub:      pub,
		enricher: enricher,
		log:      logger.ForOrchestrator(),
	}
}

// RunForArtist crawls news for one artist and returns the count of newly
// saved items. Provider and persistence failures are swallowed here:
// they are logged with the artist context and reported as zero.
func (o *Orchestrator) RunForArtist(ctx context.Context, artist news.Artist) int {
	records, err := o.searcher.Search(ctx, artist.Name)
	if err != nil {
		o.logStageError(artist, err)
		return 0
	}
	if len(records) == 0 {
		o.log.Debug().Str("artist", artist.Name).Msg("검색 결과 없음")
		return 0
	}

	items := o.parser.Parse(records, artist)

	if o.enricher != nil {
		items = o.enricher.Enrich(ctx, items)
	}

	saved, err := o.store.SaveNews(ctx, items, artist)
	if err != nil {
		o.logStageError(artist, err)
		return 0
	}

	o.publish(saved)

	return len(saved)
}

// RunForArtistID resolves an artist and crawls for it. Unlike
// RunForArtist, an unknown artist id is an error the caller must handle.
func (o *Orchestrator) RunForArtistID(ctx context.Context, id int64) (string, int, error) {
	artist, err := o.store.ArtistByID(ctx, id)
	if err != nil {
		return "", 0, err
	}
	return artist.Name, o.RunForArtist(ctx, artist), nil
}

// RunForAllActive crawls every active artist. A failure for one artist is
// recorded as a zero count and never stops the iteration.
func (o *Orchestrator) RunForAllActive(ctx context.Context) (news.CrawlResult, error) {
	artists, err := o.store.ActiveArtists(ctx)
	if err != nil {
		return nil, err
	}

	results := news.CrawlResult{}
	for _, artist := range artists {
		o.log.Info().Str("artist", artist.Name).Msg("뉴스 크롤링 시작")
		results[artist.Name] = o.safeRunForArtist(ctx, artist)
		o.log.Info().
			Str("artist", artist.Name).
			Int("saved", results[artist.Name]).
			Msg("뉴스 크롤링 완료")
	}

	return results, nil
}

// safeRunForArtist guards against panics escaping one artist's run
func (o *Orchestrator) safeRunForArtist(ctx context.Context, artist news.Artist) (count int) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().
				Str("artist", artist.Name).
				Interface("panic", r).
				Msg("뉴스 크롤링 중 오류")
			count = 0
		}
	}()
	return o.RunForArtist(ctx, artist)
}

// publish hands newly saved items to the downstream stream. Publishing is
// best effort; the crawl result does not depend on it.
func (o *Orchestrator) publish(saved []news.Item) {
	if o.pub == nil {
		return
	}
	for _, item := range saved {
		data, err := json.Marshal(item)
		if err != nil {
			o.log.Error().Err(err).Str("url", item.URL).Msg("뉴스 직렬화 실패")
			continue
		}
		if err := o.pub.Publish(data); err != nil {
			o.log.Error().Err(err).Str("url", item.URL).Msg("뉴스 발행 실패")
		}
	}
}

func (o *Orchestrator) logStageError(artist news.Artist, err error) {
	event := o.log.Error()
	if kind := errs.TypeOf(err); kind != "" {
		event = event.Str("kind", string(kind))
	}
	event.Err(err).Str("artist", artist.Name).Msg("뉴스 크롤링 중 오류")
}
