// Package history provides access to previously published articles,
// newest first. The database store is the primary provider; the site's own
// RSS feed serves as a read path when no database is reachable.
package history

import (
	"context"

	"github.com/futurumpress/newsgen/internal/article"
)

// Provider returns up to limit recent articles, newest first.
type Provider interface {
	Fetch(ctx context.Context, limit int) ([]article.Record, error)
}
