package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/futurumpress/newsgen/internal/article"
	"github.com/futurumpress/newsgen/internal/logger"
)

// RSSProvider reads publication history from the site's own feed.
type RSSProvider struct {
	FeedURL string

	parser *gofeed.Parser
}

func NewRSSProvider(feedURL string) *RSSProvider {
	return &RSSProvider{
		FeedURL: feedURL,
		parser:  gofeed.NewParser(),
	}
}

// Fetch downloads the feed and maps items to article records, newest first.
// Items without a publication date sort last.
func (p *RSSProvider) Fetch(ctx context.Context, limit int) ([]article.Record, error) {
	feed, err := p.parser.ParseURLWithContext(p.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("error parsing feed %s: %w", p.FeedURL, err)
	}

	out := make([]article.Record, 0, len(feed.Items))
	for _, it := range feed.Items {
		rec := article.Record{
			Title:   strings.TrimSpace(it.Title),
			Text:    it.Content,
			Section: article.SectionList,
			Tags:    strings.Join(it.Categories, ","),
			Slug:    slugFromLink(it.Link),
		}
		if rec.Text == "" {
			rec.Text = it.Description
		}
		if it.PublishedParsed != nil {
			rec.CreatedAt = *it.PublishedParsed
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return timeKey(out[i].CreatedAt).After(timeKey(out[j].CreatedAt))
	})

	if len(out) > limit {
		out = out[:limit]
	}
	logger.Info("loaded history from feed", "url", p.FeedURL, "items", len(out))
	return out, nil
}

// slugFromLink takes the last path segment as the record's slug. The feed is
// this site's own, so links end in the article slug.
func slugFromLink(link string) string {
	link = strings.TrimRight(link, "/")
	if idx := strings.LastIndex(link, "/"); idx >= 0 {
		return link[idx+1:]
	}
	return link
}

func timeKey(t time.Time) time.Time {
	if t.IsZero() {
		return time.Unix(0, 0)
	}
	return t
}
