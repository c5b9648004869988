package metrics

import (
	"sync"
	"time"
)

// Metrics tracks what the generation pipeline did during the last runs.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	TopicsDerived      int64
	ArticlesGenerated  int64
	ArticlesFailed     int64
	JSONRepairs        int64 // tier-1: re-issued request with explicit JSON instruction
	HeuristicRebuilds  int64 // tier-2: article assembled from raw text
	SlugCollisions     int64
	BatchesExported    int64
	ImageProviderHits  map[string]int64
	ImagePlaceholders  int64

	// Timings
	LastBatchDuration    time.Duration
	TotalBatchDuration   time.Duration
	AverageBatchDuration time.Duration
	BatchCount           int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true, ImageProviderHits: make(map[string]int64)}

func (m *Metrics) AddTopicsDerived(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TopicsDerived += int64(n)
}

func (m *Metrics) IncrementArticlesGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesGenerated++
}

func (m *Metrics) IncrementArticlesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFailed++
}

func (m *Metrics) IncrementJSONRepairs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.JSONRepairs++
}

func (m *Metrics) IncrementHeuristicRebuilds() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HeuristicRebuilds++
}

func (m *Metrics) IncrementSlugCollisions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SlugCollisions++
}

func (m *Metrics) IncrementBatchesExported() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchesExported++
}

// RecordImageProvider counts which image source ultimately served an article.
func (m *Metrics) RecordImageProvider(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImageProviderHits[name]++
	if name == "placeholder" {
		m.ImagePlaceholders++
	}
}

func (m *Metrics) RecordBatchDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastBatchDuration = d
	m.TotalBatchDuration += d
	m.BatchCount++

	if m.BatchCount > 0 {
		m.AverageBatchDuration = m.TotalBatchDuration / time.Duration(m.BatchCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	providers := make(map[string]int64, len(m.ImageProviderHits))
	for k, v := range m.ImageProviderHits {
		providers[k] = v
	}

	return map[string]interface{}{
		"topics_derived":          m.TopicsDerived,
		"articles_generated":      m.ArticlesGenerated,
		"articles_failed":         m.ArticlesFailed,
		"json_repairs":            m.JSONRepairs,
		"heuristic_rebuilds":      m.HeuristicRebuilds,
		"slug_collisions":         m.SlugCollisions,
		"batches_exported":        m.BatchesExported,
		"image_provider_hits":     providers,
		"image_placeholders":      m.ImagePlaceholders,
		"last_batch_duration_ms":  m.LastBatchDuration.Milliseconds(),
		"avg_batch_duration_ms":   m.AverageBatchDuration.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
