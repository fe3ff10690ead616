package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zankke/first-ent/internal/news"
	"github.com/zankke/first-ent/internal/search"
	"github.com/zankke/first-ent/services/publisher"
	"github.com/zankke/first-ent/services/store"
)

// MockSearcher implements search.Provider for testing
type MockSearcher struct {
	records map[string][]search.RawRecord
	errs    map[string]error
}

var _ search.Provider = (*MockSearcher)(nil)

func (m *MockSearcher) Search(ctx context.Context, query string) ([]search.RawRecord, error) {
	if err, ok := m.errs[query]; ok {
		return nil, err
	}
	return m.records[query], nil
}

// MockStore implements the orchestrator's Store interface in memory
type MockStore struct {
	artists  []news.Artist
	saved    map[int64][]news.Item
	saveErr  error
	listErr  error
	saveRuns int
}

var _ Store = (*MockStore)(nil)

func NewMockStore(artists ...news.Artist) *MockStore {
	return &MockStore{
		artists: artists,
		saved:   make(map[int64][]news.Item),
	}
}

func (m *MockStore) SaveNews(ctx context.Context, items []news.Item, artist news.Artist) ([]news.Item, error) {
	m.saveRuns++
	if m.saveErr != nil {
		return nil, m.saveErr
	}

	var inserted []news.Item
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		duplicate := false
		for _, existing := range m.saved[artist.ID] {
			if existing.URL == item.URL {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		item.ArtistID = artist.ID
		item.CrawledAt = time.Now()
		m.saved[artist.ID] = append(m.saved[artist.ID], item)
		inserted = append(inserted, item)
	}
	return inserted, nil
}

func (m *MockStore) ActiveArtists(ctx context.Context) ([]news.Artist, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var active []news.Artist
	for _, a := range m.artists {
		if a.Active() {
			active = append(active, a)
		}
	}
	return active, nil
}

func (m *MockStore) ArtistByID(ctx context.Context, id int64) (news.Artist, error) {
	for _, a := range m.artists {
		if a.ID == id {
			return a, nil
		}
	}
	return news.Artist{}, store.ErrNotFound
}

// MockPublisher records published messages
type MockPublisher struct {
	messages [][]byte
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(message []byte) error {
	m.messages = append(m.messages, message)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

func records(urls ...string) []search.RawRecord {
	var out []search.RawRecord
	for _, u := range urls {
		out = append(out, search.RawRecord{
			Title:   "제목 " + u,
			Link:    u,
			Snippet: "요약",
			Source:  "테스트 미디어",
			Date:    "2024-03-15",
		})
	}
	return out
}

func TestRunForArtistSavesAndPublishes(t *testing.T) {
	artist := news.Artist{ID: 1, Name: "아이유", Status: "active"}
	searcher := &MockSearcher{records: map[string][]search.RawRecord{
		"아이유": records("https://news.example.com/1", "https://news.example.com/2"),
	}}
	st := NewMockStore(artist)
	pub := &MockPublisher{}

	o := NewOrchestrator(searcher, search.NewParser(nil), st, pub, nil)

	count := o.RunForArtist(context.Background(), artist)
	assert.Equal(t, 2, count)
	assert.Len(t, st.saved[1], 2)
	assert.Len(t, pub.messages, 2)
}

func TestRunForArtistIsIdempotent(t *testing.T) {
	artist := news.Artist{ID: 1, Name: "아이유", Status: "active"}
	searcher := &MockSearcher{records: map[string][]search.RawRecord{
		"아이유": records("https://news.example.com/1"),
	}}
	st := NewMockStore(artist)

	o := NewOrchestrator(searcher, search.NewParser(nil), st, nil, nil)

	assert.Equal(t, 1, o.RunForArtist(context.Background(), artist))
	assert.Equal(t, 0, o.RunForArtist(context.Background(), artist))
	assert.Len(t, st.saved[1], 1)
}

func TestRunForArtistProviderErrorReturnsZero(t *testing.T) {
	artist := news.Artist{ID: 1, Name: "아이유", Status: "active"}
	searcher := &MockSearcher{errs: map[string]error{"아이유": errors.New("provider down")}}
	st := NewMockStore(artist)

	o := NewOrchestrator(searcher, search.NewParser(nil), st, nil, nil)

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, o.RunForArtist(context.Background(), artist))
	})
	assert.Zero(t, st.saveRuns, "save should not run without results")
}

func TestRunForArtistSaveErrorReturnsZero(t *testing.T) {
	artist := news.Artist{ID: 1, Name: "아이유", Status: "active"}
	searcher := &MockSearcher{records: map[string][]search.RawRecord{
		"아이유": records("https://news.example.com/1"),
	}}
	st := NewMockStore(artist)
	st.saveErr = errors.New("commit failed")

	o := NewOrchestrator(searcher, search.NewParser(nil), st, nil, nil)
	assert.Equal(t, 0, o.RunForArtist(context.Background(), artist))
}

func TestRunForArtistID(t *testing.T) {
	artist := news.Artist{ID: 7, Name: "박서준", Status: "active"}
	searcher := &MockSearcher{records: map[string][]search.RawRecord{
		"박서준": records("https://news.example.com/1"),
	}}
	st := NewMockStore(artist)

	o := NewOrchestrator(searcher, search.NewParser(nil), st, nil, nil)

	name, count, err := o.RunForArtistID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "박서준", name)
	assert.Equal(t, 1, count)

	_, _, err = o.RunForArtistID(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunForAllActiveIsolatesFailures(t *testing.T) {
	artists := []news.Artist{
		{ID: 1, Name: "첫째", Status: "active"},
		{ID: 2, Name: "둘째", Status: "active"},
		{ID: 3, Name: "셋째", Status: "active"},
		{ID: 4, Name: "휴면", Status: "inactive"},
	}
	searcher := &MockSearcher{
		records: map[string][]search.RawRecord{
			"첫째": records("https://news.example.com/a"),
			"셋째": records("https://news.example.com/b", "https://news.example.com/c"),
		},
		errs: map[string]error{"둘째": errors.New("network failure")},
	}
	st := NewMockStore(artists...)

	o := NewOrchestrator(searcher, search.NewParser(nil), st, nil, nil)

	results, err := o.RunForAllActive(context.Background())
	require.NoError(t, err)

	assert.Len(t, results, 3, "inactive artists are not crawled")
	assert.Equal(t, 1, results["첫째"])
	assert.Equal(t, 0, results["둘째"])
	assert.Equal(t, 2, results["셋째"])
	assert.Equal(t, 3, results.Total())
}

func TestRunForAllActiveListErrorPropagates(t *testing.T) {
	st := NewMockStore()
	st.listErr = errors.New("db unavailable")

	o := NewOrchestrator(&MockSearcher{}, search.NewParser(nil), st, nil, nil)

	_, err := o.RunForAllActive(context.Background())
	assert.Error(t, err)
}
