// Package export serializes a generated batch into a durable JSON payload
// for later ingestion by the storage-import path.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/futurumpress/newsgen/internal/article"
	"github.com/futurumpress/newsgen/internal/metrics"
)

// Item is one exported article. Field order and names match what the
// import path expects; image_url is present only when the image is a
// fetchable URL.
type Item struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Section   string    `json:"section"`
	Tags      string    `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"image_url,omitempty"`
}

// Exporter writes payload files.
type Exporter struct {
	Path string
}

// Write serializes the batch, in order, to the exporter's path. The write
// goes through a temp file and rename so a crash never leaves a truncated
// payload behind.
func (e *Exporter) Write(batch []article.Record) error {
	items := make([]Item, 0, len(batch))
	for _, a := range batch {
		items = append(items, Item{
			Slug:      a.Slug,
			Title:     a.Title,
			Section:   a.Section,
			Tags:      a.Tags,
			CreatedAt: a.CreatedAt,
			Text:      a.Text,
			ImageURL:  a.ImageURL,
		})
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if dir := filepath.Dir(e.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create payload dir: %w", err)
		}
	}

	tmp := e.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write payload file: %w", err)
	}
	if err := os.Rename(tmp, e.Path); err != nil {
		return fmt.Errorf("failed to finalize payload file: %w", err)
	}

	metrics.Global.IncrementBatchesExported()
	return nil
}

// Read loads a payload file back, preserving order.
func (e *Exporter) Read() ([]article.Record, error) {
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	out := make([]article.Record, 0, len(items))
	for _, it := range items {
		out = append(out, article.Record{
			Slug:      it.Slug,
			Title:     it.Title,
			Section:   it.Section,
			Tags:      it.Tags,
			CreatedAt: it.CreatedAt,
			Text:      it.Text,
			ImageURL:  it.ImageURL,
		})
	}
	return out, nil
}
