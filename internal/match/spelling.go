package match

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Variants returns the normalized forms a guess reveals: the guess itself,
// its "s" and "x" plurals, and its singular when it is longer than three
// letters and ends in "s".
func Variants(guess string) []string {
	out := []string{guess, guess + "s", guess + "x"}
	if utf8.RuneCountInString(guess) > 3 && strings.HasSuffix(guess, "s") {
		out = append(out, strings.TrimSuffix(guess, "s"))
	}
	return out
}

// SpellingSimilar reports whether the normalized guess is a near-miss of the
// normalized target by prefix or by edit distance.
func SpellingSimilar(target, guess string) bool {
	targetLen := utf8.RuneCountInString(target)
	if targetLen < 3 {
		return false
	}

	guessLen := utf8.RuneCountInString(guess)
	if strings.HasPrefix(target, guess) || strings.HasPrefix(guess, target) {
		if min(targetLen, guessLen) >= 4 {
			return true
		}
	}

	tolerance := 1
	if targetLen > 5 {
		tolerance = 2
	}
	distance := levenshtein.ComputeDistance(target, guess)
	return distance > 0 && distance <= tolerance
}
