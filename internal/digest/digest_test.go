package digest

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/futurumpress/newsgen/internal/article"
)

func TestWeights_DecayHalvesAtHalfLife(t *testing.T) {
	w := Weights(21, 10)

	if w[0] != 1.0 {
		t.Errorf("weight(0) = %v, want 1.0", w[0])
	}
	if math.Abs(w[10]-0.5) > 1e-9 {
		t.Errorf("weight(10) = %v, want 0.5", w[10])
	}
	if math.Abs(w[20]-0.25) > 1e-9 {
		t.Errorf("weight(20) = %v, want 0.25", w[20])
	}
	for i := 1; i < len(w); i++ {
		if w[i] >= w[i-1] {
			t.Fatalf("weights not strictly decreasing at %d: %v >= %v", i, w[i], w[i-1])
		}
	}
}

func TestWeights_HalfLifeFloorsAtOne(t *testing.T) {
	w := Weights(3, 0)
	if math.Abs(w[1]-0.5) > 1e-9 {
		t.Errorf("weight(1) with clamped half-life = %v, want 0.5", w[1])
	}
}

func TestBuild_StartsWithNewestItem(t *testing.T) {
	hist := []article.Record{
		{Title: "Новая статья", Tags: "город,будущее", Text: "<p>Свежий текст.</p>", CreatedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{Title: "Старая статья", Text: "<p>Старый текст.</p>", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	got := Build(hist, 40, 10, 8000)
	wantHead := "- (2026-03-02) Новая статья — теги: город,будущее"
	if !strings.HasPrefix(got, wantHead) {
		t.Errorf("digest does not start with newest item line:\n%s", got)
	}
	if !strings.Contains(got, "Свежий текст.") {
		t.Errorf("digest missing stripped excerpt: %q", got)
	}
	if strings.Contains(got, "<p>") {
		t.Errorf("digest leaked markup: %q", got)
	}
}

func TestBuild_RespectsBudget(t *testing.T) {
	long := strings.Repeat("а", 2000)
	hist := []article.Record{
		{Title: "Первая", Text: long, CreatedAt: time.Now()},
		{Title: "Вторая", Text: long, CreatedAt: time.Now()},
		{Title: "Третья", Text: long, CreatedAt: time.Now()},
	}

	const budget = 1800
	got := Build(hist, 40, 10, budget)
	if n := len([]rune(got)); n > budget {
		t.Errorf("digest length %d exceeds budget %d", n, budget)
	}
	if !strings.Contains(got, "Первая") {
		t.Errorf("digest dropped the newest item: %q", got)
	}
	if strings.Contains(got, "Третья") {
		t.Errorf("digest should have stopped before the oldest item")
	}
}

func TestBuild_EmptyHistory(t *testing.T) {
	if got := Build(nil, 40, 10, 8000); got != "" {
		t.Errorf("empty history produced %q, want empty digest", got)
	}
}

func TestBuild_LastKLimitsSubset(t *testing.T) {
	hist := []article.Record{
		{Title: "Первая", Text: "текст", CreatedAt: time.Now()},
		{Title: "Вторая", Text: "текст", CreatedAt: time.Now()},
	}
	got := Build(hist, 1, 10, 8000)
	if strings.Contains(got, "Вторая") {
		t.Errorf("lastK=1 should drop everything after the newest item: %q", got)
	}
}
