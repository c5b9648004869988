// Package storage persists article records in PostgreSQL. The pipeline only
// relies on its read/write contract: recent history, slug existence, and a
// slug-keyed bulk upsert.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/futurumpress/newsgen/internal/article"
	"github.com/futurumpress/newsgen/internal/logger"
)

type Store struct {
	db *sql.DB
}

// New connects and makes sure the schema exists.
func New(connectionString string) (*Store, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("postgres store connected")
	return s, nil
}

// initSchema creates the articles table if it does not exist. Slug
// uniqueness is the storage-level invariant that turns concurrent slug
// races into detectable conflicts.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id SERIAL PRIMARY KEY,
		slug VARCHAR(255) UNIQUE NOT NULL,
		title TEXT NOT NULL,
		text TEXT NOT NULL,
		section VARCHAR(16) NOT NULL DEFAULT 'list',
		tags TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at);
	CREATE INDEX IF NOT EXISTS idx_articles_section ON articles(section);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecentArticles returns the newest articles first.
func (s *Store) RecentArticles(ctx context.Context, limit int) ([]article.Record, error) {
	query := `
		SELECT slug, title, text, section, tags, image_url, created_at
		FROM articles
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent articles: %w", err)
	}
	defer rows.Close()

	var out []article.Record
	for rows.Next() {
		var a article.Record
		var createdAt time.Time
		if err := rows.Scan(&a.Slug, &a.Title, &a.Text, &a.Section, &a.Tags, &a.ImageURL, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		a.CreatedAt = createdAt
		out = append(out, a)
	}
	return out, rows.Err()
}

// Fetch implements the history provider contract.
func (s *Store) Fetch(ctx context.Context, limit int) ([]article.Record, error) {
	return s.RecentArticles(ctx, limit)
}

// SlugExists implements the slug lookup used by the resolver.
func (s *Store) SlugExists(slug string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE slug = $1`, slug).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

// UpsertArticles writes a batch, matching by slug: insert when absent,
// otherwise overwrite the mutable fields. Returns how many rows were written.
func (s *Store) UpsertArticles(ctx context.Context, batch []article.Record) (int, error) {
	query := `
		INSERT INTO articles (slug, title, text, section, tags, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			text = EXCLUDED.text,
			section = EXCLUDED.section,
			tags = EXCLUDED.tags,
			image_url = EXCLUDED.image_url
	`

	written := 0
	for _, a := range batch {
		createdAt := a.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := s.db.ExecContext(ctx, query, a.Slug, a.Title, a.Text, a.Section, a.Tags, a.ImageURL, createdAt); err != nil {
			return written, fmt.Errorf("failed to upsert %q: %w", a.Slug, err)
		}
		written++
	}
	return written, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
