// Package htmlnorm normalizes article text both ways: markup down to plain
// teasers, and raw generated text up to structured HTML.
package htmlnorm

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// paragraphFlushRunes is the accumulation threshold when a single unbroken
// block of text is re-cut into paragraphs.
const paragraphFlushRunes = 600

var (
	// markupRe detects structural tags. It is a heuristic: a stray "<p"
	// inside prose would match too, but generated text either is HTML or
	// is plain, never half of each.
	markupRe = regexp.MustCompile(`(?i)</?(p|br|ul|ol|li|h[1-6]|figure|img|blockquote|pre|code|div|span)\b`)

	brRe       = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockEndRe = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|blockquote|figure|figcaption)\s*>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)

	bulletRe      = regexp.MustCompile(`^[-*•]\s+`)
	blankLineRe   = regexp.MustCompile(`\n{2,}`)
	sentenceEndRe = regexpMustCompileSentence()
)

func regexpMustCompileSentence() *regexp.Regexp {
	// A run of terminal punctuation followed by whitespace closes a sentence.
	return regexp.MustCompile(`[.!?…]+\s+`)
}

// IsMarkup reports whether s already contains structural markup. Exposed as
// a predicate so the heuristic can be tested (and replaced) in isolation.
func IsMarkup(s string) bool {
	return markupRe.MatchString(s)
}

// StripTags converts markup to plain text: line breaks for <br> and block
// closers, all remaining tags removed, entities decoded.
func StripTags(markup string) string {
	s := brRe.ReplaceAllString(markup, "\n")
	s = blockEndRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

// RemoveHeroFigure drops the lead-illustration figure block so its caption
// never leaks into derived text. Returns the markup unchanged when no hero
// figure is present or when it cannot be parsed.
func RemoveHeroFigure(markup string) string {
	if !strings.Contains(markup, "article-hero") {
		return markup
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	doc.Find("figure.article-hero").Remove()
	out, err := doc.Find("body").Html()
	if err != nil {
		return markup
	}
	return out
}

// Teaser produces a short tag-free preview of fullMarkup, at most maxLen
// runes plus the ellipsis. Truncation backs off to a word boundary.
func Teaser(fullMarkup string, maxLen int) string {
	plain := StripTags(RemoveHeroFigure(fullMarkup))
	plain = strings.Join(strings.Fields(plain), " ")

	runes := []rune(plain)
	if len(runes) <= maxLen {
		return plain
	}

	cut := string(runes[:maxLen])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}

// PromotePlainText turns raw plain text into paragraph/list markup. Input
// that already contains markup is returned unchanged.
func PromotePlainText(raw string) string {
	if IsMarkup(raw) {
		return raw
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	blocks := blankLineRe.Split(text, -1)
	if len(blocks) == 1 {
		return promoteSingleBlock(blocks[0])
	}

	var out []string
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, promoteBlock(block))
	}
	return strings.Join(out, "\n")
}

// promoteSingleBlock re-cuts one unbroken block into paragraphs on sentence
// boundaries, flushing whenever enough text has accumulated.
func promoteSingleBlock(block string) string {
	var out []string
	var buf strings.Builder

	for _, sentence := range splitSentences(block) {
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(sentence)
		if len([]rune(buf.String())) >= paragraphFlushRunes {
			out = append(out, wrapParagraph(buf.String()))
			buf.Reset()
		}
	}
	if strings.TrimSpace(buf.String()) != "" {
		out = append(out, wrapParagraph(buf.String()))
	}
	return strings.Join(out, "\n")
}

// promoteBlock emits a list when every line is a bullet, a paragraph otherwise.
func promoteBlock(block string) string {
	lines := strings.Split(block, "\n")

	allBullets := true
	for _, line := range lines {
		if !bulletRe.MatchString(strings.TrimSpace(line)) {
			allBullets = false
			break
		}
	}

	if allBullets {
		var b strings.Builder
		b.WriteString("<ul>")
		for _, line := range lines {
			item := bulletRe.ReplaceAllString(strings.TrimSpace(line), "")
			b.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(item)))
		}
		b.WriteString("</ul>")
		return b.String()
	}

	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return wrapParagraph(strings.Join(lines, " "))
}

func wrapParagraph(s string) string {
	return "<p>" + html.EscapeString(strings.TrimSpace(s)) + "</p>"
}

func splitSentences(s string) []string {
	s = strings.TrimSpace(s)
	var out []string
	start := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(s, -1) {
		part := strings.TrimSpace(s[start:loc[1]])
		if part != "" {
			out = append(out, part)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
