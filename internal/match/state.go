// Package match resolves guesses against the tokens of a hidden song:
// exact and plural reveals, spelling near-misses and model near-misses.
package match

import (
	"maps"

	"rapantix/internal/lyrics"
	"rapantix/internal/normalize"
)

// HistoryEntry is the audit record of one accepted guess.
type HistoryEntry struct {
	Word     string       `json:"word"`
	HitCount int          `json:"hitCount"`
	Buckets  BucketCounts `json:"bucketCounts"`
	ClientID string       `json:"clientId,omitempty"`
}

// State is one version of a round. Every operation returns a new State and
// leaves the receiver untouched; the token slice and lookup tables are shared
// between versions because they never change during a round.
type State struct {
	tokens []lyrics.Token
	norms  []string
	index  map[string][]int

	revealed    map[int]struct{}
	annotations map[int]Annotation
	history     []HistoryEntry
}

// NewState starts a round on tokens with nothing revealed.
func NewState(tokens []lyrics.Token) State {
	norms := make([]string, len(tokens))
	index := make(map[string][]int)
	for _, t := range tokens {
		if !t.IsWord() {
			continue
		}
		n := t.Normalized()
		norms[t.ID] = n
		index[n] = append(index[n], t.ID)
	}
	return State{
		tokens:      tokens,
		norms:       norms,
		index:       index,
		revealed:    map[int]struct{}{},
		annotations: map[int]Annotation{},
	}
}

func (s State) clone() State {
	next := s
	next.revealed = maps.Clone(s.revealed)
	next.annotations = maps.Clone(s.annotations)
	next.history = append([]HistoryEntry(nil), s.history...)
	return next
}

func (s State) Tokens() []lyrics.Token { return s.tokens }

// IsRevealed reports whether the token with id is shown.
func (s State) IsRevealed(id int) bool {
	_, ok := s.revealed[id]
	return ok
}

// Annotation returns the near-miss hint on the token with id, if any.
func (s State) Annotation(id int) (Annotation, bool) {
	a, ok := s.annotations[id]
	return a, ok
}

// Annotations returns a copy of all current hints keyed by token id.
func (s State) Annotations() map[int]Annotation {
	return maps.Clone(s.annotations)
}

// History returns guesses newest first.
func (s State) History() []HistoryEntry {
	return append([]HistoryEntry(nil), s.history...)
}

// RevealedCount returns how many word tokens are shown.
func (s State) RevealedCount() int { return len(s.revealed) }

// WordCount returns how many word tokens the round has.
func (s State) WordCount() int {
	n := 0
	for _, ids := range s.index {
		n += len(ids)
	}
	return n
}

// Complete reports whether every word token is shown.
func (s State) Complete() bool {
	return s.RevealedCount() == s.WordCount()
}

// Guessed reports whether a guess with the same normalized form is already
// in the history.
func (s State) Guessed(guess string) bool {
	n := normalize.Text(guess)
	for _, h := range s.history {
		if normalize.Text(h.Word) == n {
			return true
		}
	}
	return false
}

// reveal shows every unrevealed word token matching a variant of the
// normalized guess and drops its hint. It mutates s; callers clone first.
func (s *State) reveal(normGuess string) int {
	hits := 0
	for _, v := range Variants(normGuess) {
		for _, id := range s.index[v] {
			if _, ok := s.revealed[id]; ok {
				continue
			}
			s.revealed[id] = struct{}{}
			delete(s.annotations, id)
			hits++
		}
	}
	return hits
}

// RevealExact applies only the exact/plural reveal rule for guess and returns
// the new state with the number of tokens it revealed.
func (s State) RevealExact(guess string) (State, int) {
	next := s.clone()
	hits := next.reveal(normalize.Text(guess))
	return next, hits
}

// RevealAll shows every word token and clears all hints.
func (s State) RevealAll() State {
	next := s.clone()
	for _, ids := range next.index {
		for _, id := range ids {
			next.revealed[id] = struct{}{}
		}
	}
	clear(next.annotations)
	return next
}

// WithHistory returns a copy of s with entry recorded as the newest guess.
func (s State) WithHistory(entry HistoryEntry) State {
	next := s
	next.history = append([]HistoryEntry{entry}, s.history...)
	return next
}

// MaskedToken is a token as a player may see it: unrevealed words carry only
// their length and hint.
type MaskedToken struct {
	ID         int         `json:"id"`
	Kind       lyrics.Kind `json:"kind"`
	Value      string      `json:"value,omitempty"`
	Length     int         `json:"length,omitempty"`
	WordIndex  int         `json:"wordIndex"`
	Revealed   bool        `json:"revealed"`
	Annotation *Annotation `json:"annotation,omitempty"`
}

// Mask returns the player's view of the tokens.
func (s State) Mask() []MaskedToken {
	out := make([]MaskedToken, len(s.tokens))
	for i, t := range s.tokens {
		m := MaskedToken{ID: t.ID, Kind: t.Kind, WordIndex: t.WordIndex}
		if !t.IsWord() || s.IsRevealed(t.ID) {
			m.Value = t.Value
			m.Revealed = t.IsWord()
		} else {
			m.Length = len([]rune(t.Value))
			if a, ok := s.annotations[t.ID]; ok {
				m.Annotation = &a
			}
		}
		out[i] = m
	}
	return out
}
