package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zankke/first-ent/internal/news"
)

func testParser() *Parser {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	return NewParser(news.NewNormalizerAt(func() time.Time { return now }))
}

func TestParseMapsProviderFields(t *testing.T) {
	artist := news.Artist{ID: 1, Name: "아이유", Status: "active"}
	p := testParser()

	items := p.Parse([]RawRecord{{
		Title:     "아이유, 새 앨범 발표",
		Link:      "https://news.example.com/iu-album",
		Snippet:   "가수 아이유가 새 앨범을 발표했다.",
		Source:    "연합뉴스",
		Date:      "2024-03-15",
		Thumbnail: "https://cdn.example.com/iu.jpg",
	}}, artist)

	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, int64(1), item.ArtistID)
	assert.Equal(t, "아이유, 새 앨범 발표", item.Title)
	assert.Equal(t, "가수 아이유가 새 앨범을 발표했다.", item.Content)
	assert.Equal(t, "https://news.example.com/iu-album", item.URL)
	assert.Equal(t, "연합뉴스", item.Source)
	assert.Equal(t, "연합뉴스", item.MediaName)
	assert.Equal(t, "https://cdn.example.com/iu.jpg", item.Thumbnail)
	assert.Equal(t, news.SentimentNeutral, item.Sentiment)
	assert.Equal(t, []string{"아이유"}, item.Keywords)
	require.NotNil(t, item.PublishedAt)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *item.PublishedAt)
}

func TestParseTruncatesLongSnippets(t *testing.T) {
	artist := news.Artist{ID: 1, Name: "아이유"}
	p := testParser()

	long := strings.Repeat("가", 200)
	items := p.Parse([]RawRecord{{Title: "t", Link: "https://example.com", Snippet: long}}, artist)

	require.Len(t, items, 1)
	runes := []rune(items[0].Content)
	assert.Len(t, runes, 153)
	assert.True(t, strings.HasSuffix(items[0].Content, "..."))

	// At or below the bound nothing is appended
	exact := strings.Repeat("가", 150)
	items = p.Parse([]RawRecord{{Title: "t", Link: "https://example.com", Snippet: exact}}, artist)
	assert.Equal(t, exact, items[0].Content)
}

func TestParseToleratesMalformedRecords(t *testing.T) {
	artist := news.Artist{ID: 1, Name: "아이유"}
	p := testParser()

	records := []RawRecord{
		{Title: "정상 1", Link: "https://example.com/1", Date: "2024-03-15"},
		{Title: "정상 2", Link: "https://example.com/2", Date: "3일 전"},
		{Title: "잘못된 날짜", Link: "https://example.com/3", Date: "??? 없는 형식"},
		{Title: "링크 없음", Date: "2024-03-15"},
		{Title: "정상 3", Link: "https://example.com/5", Date: "2024-03-16"},
	}

	items := p.Parse(records, artist)
	require.Len(t, items, 5, "a malformed record must not shrink the batch")

	assert.NotNil(t, items[0].PublishedAt)
	assert.NotNil(t, items[1].PublishedAt)
	assert.Nil(t, items[2].PublishedAt, "unparseable date degrades to nil")
	assert.Empty(t, items[3].URL)
	assert.NotNil(t, items[4].PublishedAt)
}

func TestParseEmptyBatch(t *testing.T) {
	p := testParser()
	items := p.Parse(nil, news.Artist{ID: 1, Name: "아이유"})
	assert.Empty(t, items)
}
