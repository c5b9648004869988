// Package digest builds the recency-weighted context digest that grounds
// new generation in what the site has already published.
package digest

import (
	"math"
	"strings"

	"github.com/futurumpress/newsgen/internal/article"
	"github.com/futurumpress/newsgen/internal/htmlnorm"
)

// baseExcerptRunes is the excerpt length for a fully decayed item; the
// newest item gets up to four times that.
const baseExcerptRunes = 400

// Weights returns the exponential decay weights for n history positions:
// weight(i) = 0.5^(i/halfLife), so weight(0) = 1 and the weight halves
// every halfLife positions.
func Weights(n, halfLife int) []float64 {
	if halfLife < 1 {
		halfLife = 1
	}
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = math.Pow(0.5, float64(i)/float64(halfLife))
	}
	return w
}

// excerptLen is the per-item excerpt budget in runes at weight w.
func excerptLen(w float64) int {
	return int(math.Floor(baseExcerptRunes * (1 + 3*w)))
}

// Build assembles the digest from history (newest first): each item becomes
// a dated, tagged bullet line followed by a weight-sized plain-text excerpt.
// Assembly stops at the first item that would push the digest past maxChars,
// keeping a deterministic recency-biased prefix. Empty history yields "".
func Build(history []article.Record, lastK, halfLife, maxChars int) string {
	if len(history) == 0 {
		return ""
	}
	if lastK < 1 {
		lastK = 1
	}
	subset := history
	if len(subset) > lastK {
		subset = subset[:lastK]
	}

	weights := Weights(len(subset), halfLife)

	var chunks []string
	total := 0
	for i, a := range subset {
		ds := ""
		if !a.CreatedAt.IsZero() {
			ds = a.CreatedAt.Format("2006-01-02")
		}
		head := "- (" + ds + ") " + strings.TrimSpace(a.Title)
		if tags := strings.TrimSpace(a.Tags); tags != "" {
			head += " — теги: " + tags
		}

		plain := htmlnorm.StripTags(a.Text)
		brief := truncRunes(plain, excerptLen(weights[i]))
		piece := head + "\n" + strings.TrimSpace(brief) + "\n"

		cost := len([]rune(piece))
		if len(chunks) > 0 {
			cost++ // joining newline
		}
		if total+cost > maxChars {
			break
		}
		chunks = append(chunks, piece)
		total += cost
	}

	return strings.TrimSpace(strings.Join(chunks, "\n"))
}

func truncRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
