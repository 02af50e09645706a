// Package round drives a player's screens: choosing a mode, setting a round
// up, playing it and the win overlay.
package round

import (
	"errors"
	"fmt"
)

type State string

const (
	StateModeSelect State = "mode-select"
	StateSoloSetup  State = "solo-setup"
	StateTeamSetup  State = "team-setup"
	StatePlaying    State = "playing"
	StateWinOverlay State = "win-overlay"
)

type Mode string

const (
	ModeNone Mode = ""
	ModeSolo Mode = "solo"
	ModeTeam Mode = "team"
)

// SongStatus is the loading sub-state of StatePlaying.
type SongStatus string

const (
	SongIdle    SongStatus = "idle"
	SongLoading SongStatus = "loading"
	SongReady   SongStatus = "ready"
	SongFailed  SongStatus = "failed"
)

type Event string

const (
	EventChooseSolo Event = "choose-solo"
	EventChooseTeam Event = "choose-team"
	EventStart      Event = "start"
	EventSongLoaded Event = "song-loaded"
	EventSongFailed Event = "song-failed"
	EventTitleFound Event = "title-found"
	EventViewLyrics Event = "view-lyrics"
	EventReset      Event = "reset"
)

var ErrInvalidTransition = errors.New("invalid transition")

// Transition describes one accepted event.
type Transition struct {
	Event    Event
	From     State
	To       State
	Mode     Mode
	Song     SongStatus
	PrevSong SongStatus
}

// Machine is not safe for concurrent use.
type Machine struct {
	state     State
	mode      Mode
	song      SongStatus
	listeners []func(Transition)
}

func New() *Machine {
	return &Machine{state: StateModeSelect, song: SongIdle}
}

func (m *Machine) State() State           { return m.state }
func (m *Machine) Mode() Mode             { return m.mode }
func (m *Machine) SongStatus() SongStatus { return m.song }

// Active reports whether guesses may be processed: the round is being played
// and its song is loaded.
func (m *Machine) Active() bool {
	return m.state == StatePlaying && m.song == SongReady
}

// OnTransition registers fn to run after every accepted event.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.listeners = append(m.listeners, fn)
}

// Fire applies ev. Events that make no sense in the current state fail with
// ErrInvalidTransition and leave the machine unchanged.
func (m *Machine) Fire(ev Event) error {
	to, mode, song, ok := m.next(ev)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, ev, m.state)
	}
	t := Transition{Event: ev, From: m.state, To: to, Mode: mode, Song: song, PrevSong: m.song}
	m.state, m.mode, m.song = to, mode, song
	for _, fn := range m.listeners {
		fn(t)
	}
	return nil
}

func (m *Machine) next(ev Event) (State, Mode, SongStatus, bool) {
	if ev == EventReset {
		return StateModeSelect, ModeNone, SongIdle, true
	}

	switch m.state {
	case StateModeSelect:
		switch ev {
		case EventChooseSolo:
			return StateSoloSetup, ModeSolo, SongIdle, true
		case EventChooseTeam:
			return StateTeamSetup, ModeTeam, SongIdle, true
		}
	case StateSoloSetup, StateTeamSetup:
		if ev == EventStart {
			return StatePlaying, m.mode, SongLoading, true
		}
	case StatePlaying:
		switch ev {
		case EventStart:
			return StatePlaying, m.mode, SongLoading, true
		case EventSongLoaded:
			if m.song == SongLoading {
				return StatePlaying, m.mode, SongReady, true
			}
		case EventSongFailed:
			if m.song == SongLoading {
				return StatePlaying, m.mode, SongFailed, true
			}
		case EventTitleFound:
			if m.song == SongReady {
				return StateWinOverlay, m.mode, m.song, true
			}
		}
	case StateWinOverlay:
		switch ev {
		case EventViewLyrics:
			return StatePlaying, m.mode, m.song, true
		case EventStart:
			return StatePlaying, m.mode, SongLoading, true
		}
	}
	return m.state, m.mode, m.song, false
}
