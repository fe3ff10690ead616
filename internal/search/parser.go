package search

import (
	"strings"

	"github.com/zankke/first-ent/helpers"
	"github.com/zankke/first-ent/internal/news"
)

// maxContentRunes bounds stored snippet length
const maxContentRunes = 150

// Parser maps raw provider records into canonical news items.
type Parser struct {
	dates *news.Normalizer
}

// NewParser creates a parser using the given date normalizer
func NewParser(dates *news.Normalizer) *Parser {
	if dates == nil {
		dates = news.NewNormalizer()
	}
	return &Parser{dates: dates}
}

// Parse converts every raw record into a canonical item. A malformed
// record degrades (nil published date, empty fields) but never aborts
// the batch; the persistence layer decides what is too incomplete to keep.
func (p *Parser) Parse(records []RawRecord, artist news.Artist) []news.Item {
	items := make([]news.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, p.parseRecord(rec, artist))
	}
	return items
}

func (p *Parser) parseRecord(rec RawRecord, artist news.Artist) news.Item {
	content := helpers.TruncateRunes(strings.TrimSpace(rec.Snippet), maxContentRunes, "...")

	return news.Item{
		ArtistID:    artist.ID,
		Title:       strings.TrimSpace(rec.Title),
		Content:     content,
		URL:         strings.TrimSpace(rec.Link),
		Source:      strings.TrimSpace(rec.Source),
		PublishedAt: p.dates.Parse(rec.Date),
		Sentiment:   news.SentimentNeutral,
		Keywords:    []string{artist.Name},
		Thumbnail:   strings.TrimSpace(rec.Thumbnail),
		MediaName:   strings.TrimSpace(rec.Source),
	}
}
