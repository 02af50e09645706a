package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fire(t *testing.T, m *Machine, events ...Event) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, m.Fire(ev), "event %s", ev)
	}
}

func TestMachine_SoloHappyPath(t *testing.T) {
	t.Parallel()

	m := New()
	assert.Equal(t, StateModeSelect, m.State())
	assert.False(t, m.Active())

	fire(t, m, EventChooseSolo)
	assert.Equal(t, StateSoloSetup, m.State())
	assert.Equal(t, ModeSolo, m.Mode())

	fire(t, m, EventStart)
	assert.Equal(t, StatePlaying, m.State())
	assert.Equal(t, SongLoading, m.SongStatus())
	assert.False(t, m.Active(), "no guesses while the song loads")

	fire(t, m, EventSongLoaded)
	assert.True(t, m.Active())

	fire(t, m, EventTitleFound)
	assert.Equal(t, StateWinOverlay, m.State())
	assert.False(t, m.Active())

	fire(t, m, EventViewLyrics)
	assert.Equal(t, StatePlaying, m.State())
	assert.True(t, m.Active())

	fire(t, m, EventTitleFound, EventStart)
	assert.Equal(t, StatePlaying, m.State())
	assert.Equal(t, SongLoading, m.SongStatus())
}

func TestMachine_Team(t *testing.T) {
	t.Parallel()

	m := New()
	fire(t, m, EventChooseTeam, EventStart, EventSongFailed)
	assert.Equal(t, ModeTeam, m.Mode())
	assert.Equal(t, SongFailed, m.SongStatus())
	assert.False(t, m.Active())

	// retry
	fire(t, m, EventStart, EventSongLoaded)
	assert.True(t, m.Active())
}

func TestMachine_InvalidTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup []Event
		ev    Event
	}{
		{name: "start before mode", ev: EventStart},
		{name: "title in setup", setup: []Event{EventChooseSolo}, ev: EventTitleFound},
		{name: "title while loading", setup: []Event{EventChooseSolo, EventStart}, ev: EventTitleFound},
		{name: "loaded twice", setup: []Event{EventChooseSolo, EventStart, EventSongLoaded}, ev: EventSongLoaded},
		{name: "choose mode while playing", setup: []Event{EventChooseSolo, EventStart}, ev: EventChooseTeam},
		{name: "view lyrics while playing", setup: []Event{EventChooseSolo, EventStart, EventSongLoaded}, ev: EventViewLyrics},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := New()
			fire(t, m, tt.setup...)
			before := m.State()
			err := m.Fire(tt.ev)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, m.State())
		})
	}
}

func TestMachine_ResetFromAnywhere(t *testing.T) {
	t.Parallel()

	paths := [][]Event{
		nil,
		{EventChooseSolo},
		{EventChooseTeam, EventStart},
		{EventChooseTeam, EventStart, EventSongLoaded, EventTitleFound},
	}
	for _, p := range paths {
		m := New()
		fire(t, m, p...)
		fire(t, m, EventReset)
		assert.Equal(t, StateModeSelect, m.State())
		assert.Equal(t, ModeNone, m.Mode())
		assert.Equal(t, SongIdle, m.SongStatus())
	}
}

func TestMachine_Listeners(t *testing.T) {
	t.Parallel()

	m := New()
	var seen []Transition
	m.OnTransition(func(tr Transition) { seen = append(seen, tr) })

	fire(t, m, EventChooseTeam, EventStart, EventSongLoaded, EventTitleFound)
	_ = m.Fire(EventViewLyrics)
	_ = m.Fire(EventViewLyrics) // rejected, not reported

	require.Len(t, seen, 5)
	assert.Equal(t, StatePlaying, seen[3].From)
	assert.Equal(t, StateWinOverlay, seen[3].To)
	assert.Equal(t, SongLoading, seen[2].PrevSong)
	assert.Equal(t, SongReady, seen[2].Song)
	assert.Equal(t, StatePlaying, seen[4].To)
}
