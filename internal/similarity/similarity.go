// Package similarity provides the near-miss model behind match.Scorer: an
// HTTP client for a hosted word-vector service and a Gemini-backed scorer.
package similarity

import (
	"errors"
)

// MaxTopN bounds how many neighbours are requested per guess.
const MaxTopN = 60

// DefaultTopN is used when no count is configured.
const DefaultTopN = 15

var ErrUnavailable = errors.New("similarity service unavailable")

// ClampTopN keeps n within 1..MaxTopN.
func ClampTopN(n int) int {
	return max(1, min(n, MaxTopN))
}
