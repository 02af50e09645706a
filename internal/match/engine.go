package match

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"rapantix/internal/normalize"
	"rapantix/internal/types"
)

// Status tells whether a guess changed the round.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusEmpty     Status = "empty"
	StatusDuplicate Status = "duplicate"
)

// Outcome reports what a single guess did.
type Outcome struct {
	Guess           string       `json:"guess"`
	Status          Status       `json:"status"`
	HitCount        int          `json:"hitCount"`
	SimilarityCount int          `json:"similarityCount"`
	Buckets         BucketCounts `json:"bucketCounts"`
	Degraded        bool         `json:"degraded"`
}

// MinModelGuessLength is the shortest guess sent to the similarity model.
const MinModelGuessLength = 2

// Apply runs guess against s with the model results already fetched and
// returns the next state. Empty and duplicate guesses return s unchanged.
func Apply(s State, guess string, model []types.SimilarWord) (State, Outcome) {
	guess = strings.TrimSpace(guess)
	out := Outcome{Guess: guess}
	if guess == "" {
		out.Status = StatusEmpty
		return s, out
	}
	if s.Guessed(guess) {
		out.Status = StatusDuplicate
		return s, out
	}
	out.Status = StatusApplied

	next := s.clone()
	norm := normalize.Text(guess)
	out.HitCount = next.reveal(norm)

	// first writer wins within one guess; a later guess may overwrite
	written := make(map[int]struct{})
	for _, t := range next.tokens {
		if !t.IsWord() || next.IsRevealed(t.ID) {
			continue
		}
		if SpellingSimilar(next.norms[t.ID], norm) {
			next.annotations[t.ID] = SpellingHint(guess)
			written[t.ID] = struct{}{}
		}
	}

	for _, m := range model {
		for _, id := range next.index[normalize.Text(m.Term)] {
			if next.IsRevealed(id) {
				continue
			}
			if _, ok := written[id]; ok {
				continue
			}
			next.annotations[id] = ModelHint(guess, m.Score)
			written[id] = struct{}{}
		}
	}

	for id := range written {
		out.Buckets.Add(Classify(next.annotations[id]))
	}
	out.SimilarityCount = len(written)

	next = next.WithHistory(HistoryEntry{Word: guess, HitCount: out.HitCount, Buckets: out.Buckets})
	return next, out
}

// Scorer is the similarity model collaborator.
type Scorer interface {
	Similar(ctx context.Context, word string, topN int) ([]types.SimilarWord, error)
}

// Engine submits guesses, querying the similarity model when one is set.
type Engine struct {
	scorer Scorer
	topN   int
	log    *slog.Logger
}

// NewEngine creates an Engine. A nil scorer leaves every guess degraded to
// spelling hints only.
func NewEngine(scorer Scorer, topN int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{scorer: scorer, topN: topN, log: logger.With("component", "match")}
}

// Submit resolves guess against s. A failing similarity model never fails
// the guess: the outcome is flagged Degraded and only spelling hints apply.
func (e *Engine) Submit(ctx context.Context, s State, guess string) (State, Outcome) {
	trimmed := strings.TrimSpace(guess)
	if trimmed == "" || s.Guessed(trimmed) {
		return Apply(s, trimmed, nil)
	}

	var model []types.SimilarWord
	degraded := e.scorer == nil
	if e.scorer != nil && utf8.RuneCountInString(trimmed) >= MinModelGuessLength {
		results, err := e.scorer.Similar(ctx, trimmed, e.topN)
		if err != nil {
			e.log.WarnContext(ctx, "similarity unavailable", slog.String("guess", trimmed), slog.String("error", err.Error()))
			degraded = true
		} else {
			model = results
		}
	}

	next, out := Apply(s, trimmed, model)
	out.Degraded = degraded
	return next, out
}
