// Package images attaches a lead illustration to generated articles through
// an ordered chain of sources: open-license search first, a media repository
// second, and a deterministic local placeholder that never fails.
package images

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/futurumpress/newsgen/internal/article"
	"github.com/futurumpress/newsgen/internal/cache"
	"github.com/futurumpress/newsgen/internal/logger"
	"github.com/futurumpress/newsgen/internal/metrics"
	"github.com/futurumpress/newsgen/internal/ratelimit"
	"github.com/futurumpress/newsgen/internal/retry"
)

// Descriptor is the normalized result every source returns.
type Descriptor struct {
	URL     string
	Title   string
	Source  string
	Landing string
	License string
}

// ErrNoResult means a source had no license-compliant image for the query.
// The chain advances to the next source.
var ErrNoResult = errors.New("no image result")

// Query is what a source searches for. Slug feeds the deterministic
// placeholder; network sources use only Text.
type Query struct {
	Text string
	Slug string
}

// Source is one provider in the fallback chain.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) (*Descriptor, error)
}

// heroRe finds an already-injected lead figure. Injection is a no-op when
// it matches, which makes re-running the pipeline over stored text safe.
var heroRe = regexp.MustCompile(`(?i)<figure[^>]+class="[^"]*article-hero[^"]*"[^>]*>`)

// HasHero reports whether markup already carries a hero figure.
func HasHero(markup string) bool {
	return heroRe.MatchString(markup)
}

// Inject prepends the hero figure for img to markup. Idempotent: markup
// that already has a hero figure is returned unchanged.
func Inject(markup string, img *Descriptor) string {
	if img == nil || img.URL == "" {
		return markup
	}
	if HasHero(markup) {
		return markup
	}

	cap := fmt.Sprintf(`Источник: <a href="%s" rel="noopener" target="_blank">%s</a>`,
		html.EscapeString(img.Landing), html.EscapeString(img.Source))
	if img.License != "" {
		cap += fmt.Sprintf(" (%s)", html.EscapeString(img.License))
	}

	figure := fmt.Sprintf(`<figure class="article-hero"><img src="%s" alt="%s" /><figcaption>%s</figcaption></figure>`,
		html.EscapeString(img.URL), html.EscapeString(img.Title), cap)

	return strings.TrimSpace(figure + "\n" + markup)
}

var punctRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// SimplifyQuery reduces a query the provider rejected: hyphens to spaces,
// punctuation stripped, short words dropped, capped word count.
func SimplifyQuery(s string, maxWords int) string {
	orig := s
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.TrimSpace(punctRe.ReplaceAllString(s, " "))

	var words []string
	for _, w := range strings.Fields(s) {
		if len([]rune(w)) > 2 {
			words = append(words, w)
		}
		if len(words) >= maxWords {
			break
		}
	}
	if len(words) == 0 {
		return orig
	}
	return strings.Join(words, " ")
}

// Attacher runs the source chain and injects the winning descriptor.
type Attacher struct {
	sources   []Source
	cache     *cache.Cache
	limiter   *ratelimit.Limiter
	altSuffix string
	retryCfg  retry.Config
}

// NewAttacher builds the chain. limiter may pace external calls; the
// placeholder source is local and is never rate limited.
func NewAttacher(sources []Source, c *cache.Cache, limiter *ratelimit.Limiter, altSuffix string) *Attacher {
	return &Attacher{
		sources:   sources,
		cache:     c,
		limiter:   limiter,
		altSuffix: altSuffix,
		retryCfg:  retry.Config{MaxAttempts: 2, Delay: time.Second},
	}
}

// Find walks the chain and returns the first descriptor. It only fails when
// the chain has no always-succeeding tail, which the default chain does.
func (a *Attacher) Find(ctx context.Context, title, slugText string) (*Descriptor, string, error) {
	q := Query{Text: strings.TrimSpace(title), Slug: slugText}
	if q.Text == "" {
		q.Text = strings.ReplaceAll(slugText, "-", " ")
	}

	for _, src := range a.sources {
		key := cache.Key(src.Name(), q.Text, q.Slug)
		if a.cache != nil {
			if v, ok := a.cache.Get(key); ok {
				if d, ok := v.(*Descriptor); ok {
					return d, src.Name(), nil
				}
			}
		}

		if a.limiter != nil && src.Name() != "placeholder" {
			if err := a.limiter.Use(src.Name()); err != nil {
				logger.Warn("image source skipped", "source", src.Name(), "reason", err)
				continue
			}
		}

		var d *Descriptor
		err := retry.Do(ctx, a.retryCfg, func() error {
			res, err := src.Search(ctx, q)
			if err != nil {
				if errors.Is(err, ErrNoResult) {
					return retry.Permanent(err)
				}
				return err
			}
			d = res
			return nil
		})
		if err != nil {
			logger.Debug("image source failed", "source", src.Name(), "err", err)
			continue
		}

		if a.cache != nil {
			a.cache.Set(key, d, 24*time.Hour)
		}
		return d, src.Name(), nil
	}

	return nil, "", fmt.Errorf("image chain exhausted for %q", q.Text)
}

// Attach finds an illustration for art and injects it into the text.
// Provenance lands on the Generated record; ImageURL is only set for
// fetchable URLs, not inline data URLs.
func (a *Attacher) Attach(ctx context.Context, art *article.Generated) error {
	if HasHero(art.Text) {
		return nil
	}

	alt := strings.TrimSpace(art.Title + " " + a.altSuffix)
	d, sourceName, err := a.Find(ctx, art.Title, art.Slug)
	if err != nil {
		return err
	}

	injected := *d
	injected.Title = alt
	art.Text = Inject(art.Text, &injected)

	art.ImageSource = d.Source
	art.ImageLicense = d.License
	art.ImageLanding = d.Landing
	if !strings.HasPrefix(d.URL, "data:") {
		art.ImageURL = d.URL
	}

	metrics.Global.RecordImageProvider(sourceName)
	return nil
}
