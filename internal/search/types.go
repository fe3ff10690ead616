package search

import "context"

// RawRecord is one provider-specific news result, decoded once at the
// adapter boundary. Field names follow the SerpAPI news payload.
type RawRecord struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Snippet   string `json:"snippet"`
	Source    string `json:"source"`
	Date      string `json:"date"`
	Thumbnail string `json:"thumbnail"`
}

// Provider is the uniform interface over an external news search call.
// An empty result list is not an error; configuration and transport
// failures are reported as typed errors.
type Provider interface {
	Search(ctx context.Context, query string) ([]RawRecord, error)
}

// KeyProvider supplies the active credential for a search platform.
// Key lifecycle (creation, rotation) is owned elsewhere.
type KeyProvider interface {
	ActiveAPIKey(ctx context.Context, platform string) (string, error)
}
