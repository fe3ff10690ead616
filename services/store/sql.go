package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver for local runs and tests

	"github.com/zankke/first-ent/internal/news"
	"github.com/zankke/first-ent/logger"
	errs "github.com/zankke/first-ent/pkg/errors"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultPingTimeout     = 5 * time.Second
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// SQLStore implements NewsStore, ArtistReader and KeyReader over a
// relational database (PostgreSQL or SQLite).
type SQLStore struct {
	db  *sqlx.DB
	log *logger.Logger
	now func() time.Time
}

var (
	_ NewsStore    = (*SQLStore)(nil)
	_ ArtistReader = (*SQLStore)(nil)
	_ KeyReader    = (*SQLStore)(nil)
)

// Open connects to the database and verifies the connection.
func Open(driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return NewSQLStore(db), nil
}

// NewSQLStore wraps an existing connection
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		db:  db,
		log: logger.ForStore(),
		now: time.Now,
	}
}

// EnsureSchema creates the tables the crawler depends on. The uniqueness
// constraint on (artist_id, url) is what makes concurrent crawls safe:
// a racing duplicate insert is rejected by the database, not by the
// read-then-write check alone.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	var ddl []string
	if s.db.DriverName() == "postgres" {
		ddl = postgresDDL
	} else {
		ddl = sqliteDDL
	}

	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errs.NewPersistence("스키마 생성 실패", err)
		}
	}
	return nil
}

var sqliteDDL = []string{
	`CREATE TABLE IF NOT EXISTS artists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		platform TEXT NOT NULL,
		api_name TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS news (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artist_id INTEGER NOT NULL REFERENCES artists(id),
		title TEXT NOT NULL,
		content TEXT,
		url TEXT NOT NULL,
		source TEXT,
		published_at TIMESTAMP,
		crawled_at TIMESTAMP NOT NULL,
		sentiment TEXT NOT NULL DEFAULT 'neutral',
		relevance_score REAL NOT NULL DEFAULT 0,
		keywords TEXT,
		thumbnail TEXT,
		media_name TEXT,
		UNIQUE (artist_id, url)
	)`,
}

var postgresDDL = []string{
	`CREATE TABLE IF NOT EXISTS artists (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active'
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id BIGSERIAL PRIMARY KEY,
		platform TEXT NOT NULL,
		api_name TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS news (
		id BIGSERIAL PRIMARY KEY,
		artist_id BIGINT NOT NULL REFERENCES artists(id),
		title TEXT NOT NULL,
		content TEXT,
		url TEXT NOT NULL,
		source TEXT,
		published_at TIMESTAMPTZ,
		crawled_at TIMESTAMPTZ NOT NULL,
		sentiment TEXT NOT NULL DEFAULT 'neutral',
		relevance_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		keywords TEXT,
		thumbnail TEXT,
		media_name TEXT,
		UNIQUE (artist_id, url)
	)`,
}

const insertNewsQuery = `INSERT INTO news
	(artist_id, title, content, url, source, published_at, crawled_at,
	 sentiment, relevance_score, keywords, thumbnail, media_name)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (artist_id, url) DO NOTHING`

// SaveNews inserts the batch inside one transaction. Duplicates (same
// artist and url) and items without a url are skipped without error; a
// per-item failure is logged and the rest of the batch continues. The
// whole batch is committed once; on commit failure everything is rolled
// back and zero items are reported saved.
func (s *SQLStore) SaveNews(ctx context.Context, items []news.Item, artist news.Artist) ([]news.Item, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errs.NewPersistence("트랜잭션 시작 실패", err)
	}

	query := s.db.Rebind(insertNewsQuery)
	crawledAt := s.now()
	var saved []news.Item

	for _, item := range items {
		if item.URL == "" {
			s.log.Warn().Str("title", item.Title).Msg("URL이 없는 뉴스 항목 건너뜀")
			continue
		}

		keywords, err := json.Marshal(item.Keywords)
		if err != nil {
			keywords = []byte("[]")
		}

		sentiment := item.Sentiment
		if sentiment == "" {
			sentiment = news.SentimentNeutral
		}

		res, err := tx.ExecContext(ctx, query,
			artist.ID,
			item.Title,
			item.Content,
			item.URL,
			item.Source,
			item.PublishedAt,
			crawledAt,
			sentiment,
			item.RelevanceScore,
			string(keywords),
			item.Thumbnail,
			item.MediaName,
		)
		if err != nil {
			s.log.Error().Err(err).Str("url", item.URL).Msg("뉴스 저장 중 오류")
			continue
		}

		rows, err := res.RowsAffected()
		if err != nil || rows == 0 {
			// Existing (artist_id, url): a duplicate, not an error
			continue
		}

		item.ArtistID = artist.ID
		item.CrawledAt = crawledAt
		item.Sentiment = sentiment
		saved = append(saved, item)
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return nil, errs.NewPersistence("데이터베이스 커밋 중 오류", err)
	}

	s.log.Info().
		Str("artist", artist.Name).
		Int("saved", len(saved)).
		Msgf("%s에 대한 %d개의 뉴스가 저장되었습니다", artist.Name, len(saved))

	return saved, nil
}

// ActiveArtists returns every artist eligible for crawling
func (s *SQLStore) ActiveArtists(ctx context.Context) ([]news.Artist, error) {
	var artists []news.Artist
	query := s.db.Rebind(`SELECT id, name, status FROM artists WHERE status = ? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &artists, query, "active"); err != nil {
		return nil, errs.NewPersistence("아티스트 조회 실패", err)
	}
	return artists, nil
}

// ArtistByID looks up a single artist
func (s *SQLStore) ArtistByID(ctx context.Context, id int64) (news.Artist, error) {
	var artist news.Artist
	query := s.db.Rebind(`SELECT id, name, status FROM artists WHERE id = ?`)
	err := s.db.GetContext(ctx, &artist, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return news.Artist{}, ErrNotFound
	}
	if err != nil {
		return news.Artist{}, errs.NewPersistence("아티스트 조회 실패", err)
	}
	return artist, nil
}

// ActiveAPIKey returns the active credential for a platform, ErrNotFound
// when none is configured.
func (s *SQLStore) ActiveAPIKey(ctx context.Context, platform string) (string, error) {
	var key string
	query := s.db.Rebind(`SELECT api_key FROM api_keys WHERE platform = ? AND is_active = TRUE ORDER BY id LIMIT 1`)
	err := s.db.GetContext(ctx, &key, query, platform)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errs.NewPersistence("API 키 조회 실패", err)
	}
	return key, nil
}

// Close releases the underlying connection pool
func (s *SQLStore) Close() error {
	return s.db.Close()
}
