// Package topics derives generation topics from publication history by
// weighted frequency. This is a deliberate heuristic over tags and title
// words, not semantic topic modeling.
package topics

import (
	"regexp"
	"sort"
	"strings"

	"github.com/futurumpress/newsgen/internal/article"
	"github.com/futurumpress/newsgen/internal/digest"
)

const (
	tagWeight   = 1.5
	tokenWeight = 1.0

	minTagLen   = 3
	minTokenLen = 4
)

var (
	tagSplitRe = regexp.MustCompile(`[,|/;]+`)
	nonWordRe  = regexp.MustCompile(`[^\p{L}\p{N}\s\-]+`)
)

// stopwords are short function words that would otherwise dominate title
// token counts.
var stopwords = map[string]bool{}

func init() {
	const list = `и в во что на для по как не от из у к до о над под при про без между или но либо либоже
это этой этот эта эти тех там тут такой такая такие было были был была будет будут`
	for _, w := range strings.Fields(list) {
		stopwords[w] = true
	}
}

type candidate struct {
	word  string
	score float64
	order int // first-seen position, stable tie-break
}

// Derive returns up to n distinct topic strings ranked by accumulated
// weight over the lastK newest history items. Tags keep their casing;
// title tokens are lowercased. When history yields nothing, the fixed
// defaults list is cycled until n entries are produced.
func Derive(history []article.Record, n, lastK, halfLife int, defaults []string) []string {
	if n < 1 {
		return nil
	}
	if lastK < 1 {
		lastK = 1
	}
	subset := history
	if len(subset) > lastK {
		subset = subset[:lastK]
	}

	weights := digest.Weights(len(subset), halfLife)

	bag := make(map[string]*candidate)
	order := 0
	add := func(word string, w float64) {
		key := strings.ToLower(word)
		if c, ok := bag[key]; ok {
			c.score += w
			return
		}
		bag[key] = &candidate{word: word, score: w, order: order}
		order++
	}

	for i, a := range subset {
		w := weights[i]
		for _, t := range tagSplitRe.Split(a.Tags, -1) {
			t = strings.TrimSpace(t)
			if len([]rune(t)) >= minTagLen {
				add(t, tagWeight*w)
			}
		}
		for _, tok := range tokenize(a.Title) {
			add(tok, tokenWeight*w)
		}
	}

	if len(bag) == 0 {
		return cycleDefaults(defaults, n)
	}

	ranked := make([]*candidate, 0, len(bag))
	for _, c := range bag {
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].order < ranked[j].order
	})

	out := make([]string, 0, n)
	for _, c := range ranked {
		out = append(out, c.word)
		if len(out) >= n {
			break
		}
	}
	return out
}

// tokenize lowercases title words of useful length, dropping stopwords.
func tokenize(title string) []string {
	s := nonWordRe.ReplaceAllString(title, " ")
	s = strings.ReplaceAll(s, "_", " ")

	var out []string
	for _, t := range strings.Fields(s) {
		t = strings.ToLower(t)
		if len([]rune(t)) >= minTokenLen && !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

func cycleDefaults(defaults []string, n int) []string {
	if len(defaults) == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; len(out) < n; i++ {
		out = append(out, defaults[i%len(defaults)])
	}
	return out
}
