// Package normalize produces the canonical forms used whenever two pieces of
// text are compared. None of these forms are meant for display.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// apostrophes folds typographic quote variants onto the ASCII apostrophe.
var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// Text lower-cases s, decomposes accented characters and strips the
// combining marks, leaving the base letters.
//
//	Text("Éléphant") == "elephant"
func Text(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		// transform only fails on invalid state; fall back to plain folding.
		out = s
	}
	return strings.ToLower(apostrophes.Replace(out))
}

// Key is Text with every run of non letter/digit characters collapsed to a
// single space and the result trimmed. Two guesses with the same Key are
// the same guess.
//
//	Key("  L'Amour, toujours! ") == "l amour toujours"
func Key(s string) string {
	folded := Text(s)
	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

var creditWords = map[string]struct{}{"feat": {}, "ft": {}, "featuring": {}}

// Title is the comparison key for song titles: Key without any bracketed or
// parenthesised suffix and without the feat/ft/featuring credit.
//
//	Title("Bad Boy (feat. X) [Remix]") == "bad boy"
func Title(s string) string {
	if i := strings.IndexAny(s, "(["); i > 0 {
		s = s[:i]
	}
	fields := strings.Fields(Key(s))
	for i, f := range fields {
		if _, ok := creditWords[f]; ok && i > 0 {
			fields = fields[:i]
			break
		}
	}
	return strings.Join(fields, " ")
}
