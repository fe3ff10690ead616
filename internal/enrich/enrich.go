package enrich

import (
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/zankke/first-ent/helpers"
	"github.com/zankke/first-ent/internal/news"
	"github.com/zankke/first-ent/logger"
)

// maxDescriptionRunes matches the snippet bound used by the result parser
const maxDescriptionRunes = 150

// FetchFunc retrieves an article page body
type FetchFunc func(url string) (io.Reader, error)

// Enricher fills missing thumbnails and snippets by scraping the article
// page's Open Graph metadata. Best effort: any per-item failure is logged
// and the item passes through unchanged.
type Enricher struct {
	fetch FetchFunc
	log   *logger.Logger
}

// New creates an enricher using the default page fetcher
func New() *Enricher {
	return &Enricher{
		fetch: helpers.FetchWithRandomHeaders,
		log:   logger.ForOrchestrator().WithField("stage", "enrich"),
	}
}

// NewWithFetcher creates an enricher with an injected fetcher, for tests
func NewWithFetcher(fetch FetchFunc) *Enricher {
	e := New()
	e.fetch = fetch
	return e
}

// Enrich scrapes metadata for items the provider returned without a
// thumbnail. Items with a thumbnail or without a URL are left alone.
func (e *Enricher) Enrich(ctx context.Context, items []news.Item) []news.Item {
	for i := range items {
		if ctx.Err() != nil {
			break
		}
		if items[i].Thumbnail != "" || items[i].URL == "" {
			continue
		}

		meta, err := e.scrape(items[i].URL)
		if err != nil {
			e.log.Warn().Err(err).Str("url", items[i].URL).Msg("메타데이터 수집 실패")
			continue
		}

		if meta.image != "" {
			items[i].Thumbnail = meta.image
		}
		if items[i].Content == "" && meta.description != "" {
			items[i].Content = helpers.TruncateRunes(meta.description, maxDescriptionRunes, "...")
		}
	}
	return items
}

type pageMeta struct {
	image       string
	description string
}

func (e *Enricher) scrape(url string) (pageMeta, error) {
	body, err := e.fetch(url)
	if err != nil {
		return pageMeta{}, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return pageMeta{}, err
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	meta := pageMeta{
		image:       extract(`meta[property="og:image"]`),
		description: extract(`meta[property="og:description"]`),
	}
	if meta.description == "" {
		meta.description = extract(`meta[name="description"]`)
	}

	return meta, nil
}
