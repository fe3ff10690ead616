package store

import (
	"context"

	"github.com/zankke/first-ent/internal/news"
)

// NewsStore persists crawled news. SaveNews is idempotent per
// (artist_id, url): re-saving an already known link is a no-op.
type NewsStore interface {
	// SaveNews upserts a batch of items for one artist inside a single
	// transaction and returns the items that were actually inserted.
	// A commit failure rolls back the whole batch and returns an error.
	SaveNews(ctx context.Context, items []news.Item, artist news.Artist) ([]news.Item, error)
}

// ArtistReader reads artist identities. Artists are owned by the
// surrounding system; the crawler never writes them.
type ArtistReader interface {
	ActiveArtists(ctx context.Context) ([]news.Artist, error)
	ArtistByID(ctx context.Context, id int64) (news.Artist, error)
}

// KeyReader reads the active credential for a search platform.
type KeyReader interface {
	ActiveAPIKey(ctx context.Context, platform string) (string, error)
}
