// Package app wires the generation pipeline together: history → digest and
// topics → per-topic synthesis → export and optional import.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/futurumpress/newsgen/internal/article"
	imgcache "github.com/futurumpress/newsgen/internal/cache"
	"github.com/futurumpress/newsgen/internal/config"
	"github.com/futurumpress/newsgen/internal/digest"
	"github.com/futurumpress/newsgen/internal/export"
	"github.com/futurumpress/newsgen/internal/history"
	"github.com/futurumpress/newsgen/internal/images"
	"github.com/futurumpress/newsgen/internal/llm"
	"github.com/futurumpress/newsgen/internal/logger"
	"github.com/futurumpress/newsgen/internal/metrics"
	"github.com/futurumpress/newsgen/internal/ratelimit"
	"github.com/futurumpress/newsgen/internal/slug"
	"github.com/futurumpress/newsgen/internal/storage"
	"github.com/futurumpress/newsgen/internal/synth"
	"github.com/futurumpress/newsgen/internal/topics"
)

// Options are the per-run knobs; zero values fall back to configuration.
type Options struct {
	N           int    // how many articles to generate (clamped to 1..5)
	Topic       string // explicit topic, skips derivation
	LastK       int
	HalfLife    int
	CtxMaxChars int
	DoImport    bool // upsert the batch into storage after export
}

// RunResult reports what a batch produced.
type RunResult struct {
	Topics   []string
	Articles []article.Record
	Failed   map[string]string // topic → error
	Imported int
}

// Run executes one generation batch.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*RunResult, error) {
	started := time.Now()

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return nil, err
	}

	n := opts.N
	if n < 1 {
		if opts.Topic != "" {
			n = 1
		} else {
			n = 3
		}
	}
	if n > 5 {
		n = 5
	}
	lastK := orDefault(opts.LastK, cfg.LastK)
	halfLife := orDefault(opts.HalfLife, cfg.HalfLife)
	ctxMaxChars := orDefault(opts.CtxMaxChars, cfg.CtxMaxChars)

	// Storage doubles as history provider and slug lookup when configured.
	var store *storage.Store
	if cfg.HistorySource == "db" || opts.DoImport {
		store, err = storage.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer store.Close()
	}

	var provider history.Provider
	if cfg.HistorySource == "rss" {
		provider = history.NewRSSProvider(cfg.HistoryFeedURL)
	} else {
		provider = store
	}

	hist, err := provider.Fetch(ctx, lastK)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	logger.Info("loaded history", "items", len(hist))

	ctxDigest := digest.Build(hist, lastK, halfLife, ctxMaxChars)

	var topicList []string
	if opts.Topic != "" {
		topicList = []string{opts.Topic}
	} else {
		topicList = topics.Derive(hist, n, lastK, halfLife, profile.Topics.Defaults)
	}
	metrics.Global.AddTopicsDerived(len(topicList))
	logger.Info("topics selected", "topics", topicList)

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer gen.Close()

	limiter := ratelimit.New(map[string]int{"llm": cfg.MaxLLMRequests}, 0, cfg.ImagePace)

	var slugStore slug.Lookup
	if store != nil {
		slugStore = store
	}

	runBatch := func(forceProvider string) []synth.Result {
		attacher := images.NewAttacher(
			imageChain(cfg, forceProvider),
			imgcache.New(),
			limiter,
			cfg.ImageAltSuffix,
		)
		s := synth.New(gen, slugStore, attacher, profile, limiter)
		return s.Batch(ctx, topicList, ctxDigest)
	}

	results := runBatch(cfg.ForceProvider)
	if allFailed(results) && cfg.ForceProvider == "" {
		// One pipeline-level fallback: a full retry with the local
		// placeholder provider before the failure surfaces.
		logger.Warn("batch failed entirely, retrying once with placeholder images")
		results = runBatch("placeholder")
	}

	res := &RunResult{
		Topics: topicList,
		Failed: make(map[string]string),
	}
	for _, r := range results {
		if r.Err != nil {
			res.Failed[r.Topic] = r.Err.Error()
			continue
		}
		res.Articles = append(res.Articles, r.Article.Record)
	}

	if len(res.Articles) == 0 {
		metrics.Global.SetError("no articles generated")
		return res, fmt.Errorf("no articles generated (%d topics failed)", len(res.Failed))
	}

	exp := &export.Exporter{Path: cfg.PayloadPath}
	if err := exp.Write(res.Articles); err != nil {
		return res, err
	}
	logger.Info("payload written", "path", cfg.PayloadPath, "articles", len(res.Articles))

	if opts.DoImport {
		written, err := store.UpsertArticles(ctx, res.Articles)
		res.Imported = written
		if err != nil {
			return res, fmt.Errorf("import batch: %w", err)
		}
		logger.Info("batch imported", "written", written)
	}

	metrics.Global.SetLastRun()
	metrics.Global.RecordBatchDuration(time.Since(started))
	return res, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	switch cfg.GenProvider {
	case "gemini":
		return llm.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.MaxTokens, cfg.Temperature)
	default:
		return llm.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, cfg.MaxTokens, cfg.Temperature)
	}
}

// imageChain builds the ordered provider list. force narrows the chain to a
// single named network provider; the placeholder stays as the tail of every
// chain so an article is never left without an image.
func imageChain(cfg *config.Config, force string) []images.Source {
	switch force {
	case "placeholder":
		return []images.Source{&images.Placeholder{}}
	case "openverse":
		return []images.Source{images.NewOpenverse(cfg.RequestTimeout), &images.Placeholder{}}
	case "wikimedia":
		return []images.Source{images.NewWikimedia(cfg.RequestTimeout), &images.Placeholder{}}
	default:
		return []images.Source{
			images.NewOpenverse(cfg.RequestTimeout),
			images.NewWikimedia(cfg.RequestTimeout),
			&images.Placeholder{},
		}
	}
}

func allFailed(results []synth.Result) bool {
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return len(results) > 0
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
