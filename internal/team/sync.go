package team

import (
	"rapantix/internal/lyrics"
	"rapantix/internal/match"
	"rapantix/internal/types"
)

// Sync is one client's view of a team round. It is not safe for concurrent
// use; the owning event loop feeds it snapshots and reads the view.
type Sync struct {
	tokens   []lyrics.Token
	clientID string

	log                []types.GuessEvent
	youFoundTitle      bool
	teammateFoundTitle bool
	view               match.State
	replays            int
}

// NewSync starts an empty view of the song's tokens for clientID.
func NewSync(tokens []lyrics.Token, clientID string) *Sync {
	return &Sync{
		tokens:   tokens,
		clientID: clientID,
		view:     Replay(tokens, nil, false),
	}
}

// Apply merges a polled snapshot. It replays the log only when the snapshot
// carried events not seen before or changed whether this client found the
// title, and reports whether it did.
func (s *Sync) Apply(state types.TeamState) bool {
	s.teammateFoundTitle = state.TeammateFoundTitle
	return s.update(state.Guesses, state.YouFoundTitle || s.youFoundTitle)
}

// AddEvent merges a single event, typically the one returned when this
// client submitted a guess.
func (s *Sync) AddEvent(e types.GuessEvent) bool {
	return s.update([]types.GuessEvent{e}, s.youFoundTitle)
}

// MarkTitleFound records the session's confirmation that this client found
// the title.
func (s *Sync) MarkTitleFound() bool {
	return s.update(nil, true)
}

func (s *Sync) update(batch []types.GuessEvent, youFoundTitle bool) bool {
	merged := Merge(s.log, batch)
	if !Changed(s.log, merged) && youFoundTitle == s.youFoundTitle {
		return false
	}
	s.log = merged
	s.youFoundTitle = youFoundTitle
	s.view = Replay(s.tokens, s.log, s.youFoundTitle)
	s.replays++
	return true
}

func (s *Sync) View() match.State { return s.view }

func (s *Sync) Log() []types.GuessEvent { return s.log }

// Replays counts how many times the view was recomputed.
func (s *Sync) Replays() int { return s.replays }

// Won reports whether the session confirmed that this client found the
// title. A teammate's success does not end this client's round.
func (s *Sync) Won() bool { return s.youFoundTitle }

// TitleRevealAvailable reports whether a teammate found the title while this
// client has not, which lets the player choose to reveal it.
func (s *Sync) TitleRevealAvailable() bool {
	return s.teammateFoundTitle && !s.youFoundTitle
}

// Guessed reports whether word is already in the merged log.
func (s *Sync) Guessed(word string) bool {
	return s.view.Guessed(word)
}
