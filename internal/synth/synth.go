// Package synth turns derived topics into complete article records: prompt
// rendering, generation, JSON recovery, normalization, slug assignment and
// image attachment.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/futurumpress/newsgen/internal/article"
	"github.com/futurumpress/newsgen/internal/config"
	"github.com/futurumpress/newsgen/internal/htmlnorm"
	"github.com/futurumpress/newsgen/internal/images"
	"github.com/futurumpress/newsgen/internal/llm"
	"github.com/futurumpress/newsgen/internal/logger"
	"github.com/futurumpress/newsgen/internal/metrics"
	"github.com/futurumpress/newsgen/internal/ratelimit"
	"github.com/futurumpress/newsgen/internal/slug"
)

const maxTitleRunes = 120

// strictJSONReminder is appended when the first response did not parse.
const strictJSONReminder = "\n\nВерни СТРОГО один JSON-объект."

// codeFenceRe strips markdown fences some backends wrap JSON in.
var codeFenceRe = regexp.MustCompile("(?is)^```(?:json)?\\s*|\\s*```$")

// Synthesizer produces one article per topic.
type Synthesizer struct {
	Gen      llm.Generator
	Attacher *images.Attacher
	Profile  *config.Profile
	Limiter  *ratelimit.Limiter

	resolver *slug.Resolver
	assigned map[string]bool
}

// batchSlugs augments the persistent slug lookup with slugs already handed
// out in the current batch, so nothing is reused before the batch persists.
type batchSlugs struct {
	store slug.Lookup
	seen  map[string]bool
}

func (b *batchSlugs) SlugExists(s string) (bool, error) {
	if b.seen[s] {
		return true, nil
	}
	if b.store != nil {
		return b.store.SlugExists(s)
	}
	return false, nil
}

// New builds a synthesizer. store may be nil when no persistent slug
// lookup is available (feed-only history).
func New(gen llm.Generator, store slug.Lookup, attacher *images.Attacher, profile *config.Profile, limiter *ratelimit.Limiter) *Synthesizer {
	assigned := make(map[string]bool)
	return &Synthesizer{
		Gen:      gen,
		Attacher: attacher,
		Profile:  profile,
		Limiter:  limiter,
		resolver: &slug.Resolver{Store: &batchSlugs{store: store, seen: assigned}},
		assigned: assigned,
	}
}

// Result is the per-topic outcome. A failed topic carries its error and
// does not abort the rest of the batch.
type Result struct {
	Topic   string
	Article *article.Generated
	Err     error
}

// payload mirrors the JSON object the backend is asked to return.
type payload struct {
	Title   string `json:"title"`
	Section string `json:"section"`
	Tags    string `json:"tags"`
	Text    string `json:"text"`
}

// Batch processes topics in order, one complete article at a time. The
// first position is forced to the main section and everything else lands
// in list, so a batch carries at most one main article.
func (s *Synthesizer) Batch(ctx context.Context, topics []string, digest string) []Result {
	results := make([]Result, 0, len(topics))

	for i, topic := range topics {
		art, err := s.GenerateOne(ctx, topic, digest)
		if err != nil {
			logger.Error("topic synthesis failed", "topic", topic, "err", err)
			metrics.Global.IncrementArticlesFailed()
			results = append(results, Result{Topic: topic, Err: err})
			continue
		}

		if i == 0 {
			art.Section = article.SectionMain
		} else {
			art.Section = article.SectionList
		}

		metrics.Global.IncrementArticlesGenerated()
		results = append(results, Result{Topic: topic, Article: art})
	}

	return results
}

// GenerateOne runs the full per-topic flow and returns a complete record.
func (s *Synthesizer) GenerateOne(ctx context.Context, topic, digest string) (*article.Generated, error) {
	req := llm.Request{
		System: s.Profile.Prompts.System,
		User:   renderPrompt(s.Profile.Prompts.User, topic, digest),
	}

	data, err := s.generateParsed(ctx, req, topic)
	if err != nil {
		return nil, err
	}

	s.normalize(data, topic)

	art := &article.Generated{
		Record: article.Record{
			Title:     data.Title,
			Text:      data.Text,
			Section:   data.Section,
			Tags:      article.MergeTags(data.Tags, s.Profile.Tags.Extra),
			CreatedAt: time.Now().UTC(),
		},
	}

	slugVal, err := s.resolver.Resolve(art.Title, "")
	if err != nil {
		return nil, fmt.Errorf("resolve slug for %q: %w", art.Title, err)
	}
	art.Slug = slugVal
	s.assigned[slugVal] = true

	if s.Attacher != nil {
		if err := s.Attacher.Attach(ctx, art); err != nil {
			// The placeholder tail normally guarantees success; a failure
			// here means the chain was overridden, so keep the article.
			logger.Warn("image attachment failed", "slug", art.Slug, "err", err)
		}
	}

	return art, nil
}

// generateParsed implements the two-tier recovery flow: a strict-JSON
// request first, one re-issued plain request with an explicit JSON
// instruction second, and a heuristic rebuild of the raw text last.
func (s *Synthesizer) generateParsed(ctx context.Context, req llm.Request, topic string) (*payload, error) {
	raw, firstErr := s.call(ctx, req, true)
	if firstErr == nil {
		if data, ok := parseJSON(raw); ok {
			return data, nil
		}
	}

	metrics.Global.IncrementJSONRepairs()
	retryReq := req
	retryReq.User += strictJSONReminder
	raw2, secondErr := s.call(ctx, retryReq, false)
	if secondErr != nil {
		if firstErr != nil {
			return nil, fmt.Errorf("generation failed: %w (strict attempt: %v)", secondErr, firstErr)
		}
		// Keep the unparseable first response for the heuristic rebuild.
	} else {
		raw = raw2
	}

	if data, ok := parseJSON(raw); ok {
		return data, nil
	}

	metrics.Global.IncrementHeuristicRebuilds()
	return heuristicPayload(raw, topic), nil
}

func (s *Synthesizer) call(ctx context.Context, req llm.Request, strict bool) (string, error) {
	if s.Limiter != nil {
		if err := s.Limiter.Use("llm"); err != nil {
			return "", err
		}
	}
	return s.Gen.Generate(ctx, req, strict)
}

// parseJSON attempts to decode one JSON object, tolerating markdown fences.
func parseJSON(raw string) (*payload, bool) {
	cleaned := codeFenceRe.ReplaceAllString(strings.TrimSpace(raw), "")
	var data payload
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, false
	}
	return &data, true
}

// heuristicPayload assembles an article from unparseable text: the first
// line becomes the title, blank-line blocks become paragraphs.
func heuristicPayload(raw string, topic string) *payload {
	raw = strings.TrimSpace(raw)

	title := topic
	if raw != "" {
		title = strings.SplitN(raw, "\n", 2)[0]
	}
	title = clampRunes(strings.TrimSpace(title), maxTitleRunes)
	if title == "" {
		title = topic
	}

	var blocks []string
	for _, block := range regexp.MustCompile(`\n{2,}`).Split(raw, -1) {
		block = strings.TrimSpace(block)
		if block != "" {
			blocks = append(blocks, "<p>"+block+"</p>")
		}
	}

	return &payload{
		Title:   title,
		Section: article.SectionList,
		Tags:    topic,
		Text:    strings.Join(blocks, ""),
	}
}

// normalize clamps and coerces a parsed payload into record shape.
func (s *Synthesizer) normalize(data *payload, topic string) {
	data.Title = strings.TrimSpace(data.Title)
	if data.Title == "" {
		data.Title = topic
	}
	data.Title = clampRunes(data.Title, maxTitleRunes)

	if !article.ValidSection(data.Section) {
		data.Section = article.SectionList
	}

	data.Text = strings.TrimSpace(data.Text)
	if !htmlnorm.IsMarkup(data.Text) {
		data.Text = htmlnorm.PromotePlainText(data.Text)
	}

	if strings.TrimSpace(data.Tags) == "" {
		data.Tags = topic
	}
}

func renderPrompt(tmpl, topic, digest string) string {
	return strings.NewReplacer(
		"{topic}", topic,
		"{context}", digest,
	).Replace(tmpl)
}

func clampRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max]))
}
