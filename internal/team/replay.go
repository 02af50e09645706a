package team

import (
	"rapantix/internal/lyrics"
	"rapantix/internal/match"
	"rapantix/internal/types"
)

// Replay folds the merged log over a fresh round on tokens using only the
// exact/plural reveal rule. History is newest first. When youFoundTitle is
// set every word is revealed regardless of the log.
func Replay(tokens []lyrics.Token, log []types.GuessEvent, youFoundTitle bool) match.State {
	s := match.NewState(tokens)
	for _, e := range log {
		var hits int
		s, hits = s.RevealExact(e.Word)
		s = s.WithHistory(match.HistoryEntry{Word: e.Word, HitCount: hits, ClientID: e.ClientID})
	}
	if youFoundTitle {
		s = s.RevealAll()
	}
	return s
}
