package images

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// Placeholder is the always-succeeding tail of the chain: a deterministic
// SVG whose background is derived from the article slug, with the title as
// overlay text and a caption linking to an external image search.
type Placeholder struct{}

func (p *Placeholder) Name() string { return "placeholder" }

func (p *Placeholder) Search(_ context.Context, q Query) (*Descriptor, error) {
	title := strings.TrimSpace(q.Text)
	if title == "" {
		title = strings.ReplaceAll(q.Slug, "-", " ")
	}
	return &Descriptor{
		URL:     svgDataURL(q.Slug, title),
		Title:   title,
		Source:  "Google Images (link)",
		Landing: googleImagesURL(title),
		License: "—",
	}, nil
}

// colorFromSlug derives a stable pastel color from the slug.
func colorFromSlug(s string) string {
	sum := md5.Sum([]byte(s))
	h := hex.EncodeToString(sum[:])
	r := 200 + hexByte(h[0:2])%40
	g := 200 + hexByte(h[2:4])%40
	b := 200 + hexByte(h[4:6])%40
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

func hexByte(s string) int {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) == 0 {
		return 0
	}
	return int(b[0])
}

func svgDataURL(slugText, title string) string {
	bg := colorFromSlug(slugText)

	t := []rune(title)
	if len(t) > 60 {
		t = t[:60]
	}

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="1200" height="630">`+
		`<defs><linearGradient id="g" x1="0" y1="0" x2="1" y2="1">`+
		`<stop offset="0%%" stop-color="%s"/><stop offset="100%%" stop-color="#ffffff"/>`+
		`</linearGradient></defs>`+
		`<rect width="100%%" height="100%%" fill="url(#g)"/>`+
		`<text x="48" y="330" font-size="56" font-family="PT Serif, Georgia, serif" fill="#222">%s</text>`+
		`</svg>`, bg, html.EscapeString(string(t)))

	data := strings.ReplaceAll(svg, "#", "%23")
	return "data:image/svg+xml;utf8," + data
}

func googleImagesURL(title string) string {
	return "https://www.google.com/search?tbm=isch&q=" + url.QueryEscape(title)
}
