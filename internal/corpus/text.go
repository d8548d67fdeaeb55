package corpus

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	hspaceRE = regexp.MustCompile(`[ \t]+`)
	slugRE   = regexp.MustCompile(`[^a-z0-9]+`)
	snakeRE  = regexp.MustCompile(`[^0-9A-Za-z]+`)
)

// asciiFold strips diacritics and any remaining non-ASCII runes. Chained
// transformers carry state, so each call builds its own chain; sharing
// one across goroutines is not safe.
func asciiFold(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeString applies NFC normalization, trims the ends, and collapses
// runs of horizontal whitespace to a single space.
func NormalizeString(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	return hspaceRE.ReplaceAllString(s, " ")
}

// Slugify lowercases, strips accents and non-alphanumerics, and joins the
// remainder with hyphens. Empty input slugs to "item" so ids are never
// bare prefixes.
func Slugify(s string) string {
	folded := strings.ToLower(asciiFold(s))
	folded = slugRE.ReplaceAllString(folded, "-")
	folded = strings.Trim(folded, "-")
	if folded == "" {
		return "item"
	}
	return folded
}

// LemmaKey is the NFC-normalized, case-folded form used for vocabulary
// index lookups.
func LemmaKey(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// IdentityKey is the dedupe identity for lemmas: NFKD-stripped,
// ASCII-folded, lowercased. "Canción" and "cancion" collide here even
// though they remain distinct LemmaKeys.
func IdentityKey(s string) string {
	return strings.ToLower(asciiFold(s))
}

// SnakeCase normalizes an arbitrary key to snake_case: separators and
// punctuation become single underscores, letters are lowercased.
func SnakeCase(key string) string {
	key = strings.ReplaceAll(key, "-", " ")
	key = strings.ReplaceAll(key, "/", " ")
	key = snakeRE.ReplaceAllString(key, " ")
	fields := strings.Fields(key)
	return strings.ToLower(strings.Join(fields, "_"))
}
