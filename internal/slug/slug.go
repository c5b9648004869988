// Package slug derives stable URL identifiers from titles and resolves
// collisions against already-assigned slugs.
package slug

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/futurumpress/newsgen/internal/metrics"
)

// Fallback is used when a title transliterates to nothing usable.
const Fallback = "article"

// translit maps Cyrillic to ASCII, one direction only. Unmapped runes pass
// through and are handled by the non-alphanumeric collapse below.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "i", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ы': "y", 'э': "e", 'ю': "yu", 'я': "ya", 'ь': "", 'ъ': "",
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Make transliterates s into a lowercase hyphenated ASCII slug. An empty
// result maps to the fixed fallback token.
func Make(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		if t, ok := translit[r]; ok {
			b.WriteString(t)
		} else {
			b.WriteRune(r)
		}
	}

	out := nonSlugRe.ReplaceAllString(b.String(), "-")
	out = strings.Trim(out, "-")
	if out == "" {
		return Fallback
	}
	return out
}

// Lookup answers whether a slug is already taken. The storage layer
// implements it; tests use an in-memory set.
type Lookup interface {
	SlugExists(slug string) (bool, error)
}

// Resolver assigns unique slugs using an injected existence lookup. It is
// deterministic: the same basis against the same set of taken slugs always
// resolves to the same value.
type Resolver struct {
	Store Lookup
}

// Resolve returns a free slug derived from basis. When the base slug is
// taken, numeric suffixes -2, -3, … are tried in order. current is the
// record's own prior slug for in-place updates; matching it is not a
// collision. Pass "" for new records.
func (r *Resolver) Resolve(basis, current string) (string, error) {
	base := Make(basis)

	candidate := base
	for i := 2; ; i++ {
		if candidate == current {
			return candidate, nil
		}
		var taken bool
		if r.Store != nil {
			var err error
			taken, err = r.Store.SlugExists(candidate)
			if err != nil {
				return "", fmt.Errorf("slug lookup %q: %w", candidate, err)
			}
		}
		if !taken {
			return candidate, nil
		}
		metrics.Global.IncrementSlugCollisions()
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
