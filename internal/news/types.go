package news

import "time"

// Sentiment classifies the tone of an article. Crawled items start out
// neutral; a separate tagging process updates the value later.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Artist is the subject news is collected about. The crawler only reads
// artists; their lifecycle is owned elsewhere.
type Artist struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Status string `db:"status" json:"status"`
}

// Active reports whether the artist is eligible for crawling
func (a Artist) Active() bool {
	return a.Status == "active"
}

// Item represents one externally discovered article for one artist.
// The pair (ArtistID, URL) identifies an article; re-ingesting the same
// link for the same artist is a no-op.
type Item struct {
	ID             int64      `db:"id" json:"id"`
	ArtistID       int64      `db:"artist_id" json:"artist_id"`
	Title          string     `db:"title" json:"title"`
	Content        string     `db:"content" json:"content"`
	URL            string     `db:"url" json:"url"`
	Source         string     `db:"source" json:"source"`
	PublishedAt    *time.Time `db:"published_at" json:"published_at,omitempty"`
	CrawledAt      time.Time  `db:"crawled_at" json:"crawled_at"`
	Sentiment      Sentiment  `db:"sentiment" json:"sentiment"`
	RelevanceScore float64    `db:"relevance_score" json:"relevance_score"`
	Keywords       []string   `db:"-" json:"keywords"`
	Thumbnail      string     `db:"thumbnail" json:"thumbnail,omitempty"`
	MediaName      string     `db:"media_name" json:"media_name,omitempty"`
}

// CrawlResult is the in-memory outcome of one orchestrator run over all
// active artists, keyed by artist name.
type CrawlResult map[string]int

// Total returns the sum of saved counts across all artists
func (r CrawlResult) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}
