package main

import (
	"context"
	"errors"
	"strings"

	"rapantix/internal/catalog"
	"rapantix/internal/match"
	"rapantix/internal/normalize"
	"rapantix/internal/types"
)

var (
	errRoundOver = errors.New(ErrorRoundOver)
	errNoCatalog = errors.New(ErrorNoCatalog)
)

// pickSong returns a random catalog song excluding completed titles. The
// boolean reports that every song had been completed.
func (app *App) pickSong(ctx context.Context, completed []string) (types.Song, bool, error) {
	if app.Catalog == nil {
		return types.Song{}, false, errNoCatalog
	}
	song, reset, err := app.Catalog.Random(ctx, completed)
	if err != nil {
		if errors.Is(err, catalog.ErrEmpty) {
			return types.Song{}, false, errNoCatalog
		}
		return types.Song{}, false, err
	}
	if reset {
		logInfo("%sAll %d songs completed, catalog reset", requestTag(ctx), app.Catalog.Len())
	} else {
		logInfo("%sSelected song from catalog (excluding %d completed)", requestTag(ctx), len(completed))
	}
	return song, reset, nil
}

// submitSoloGuess runs guess through the match engine. Only one guess per
// round is processed at a time.
func (app *App) submitSoloGuess(ctx context.Context, round *SoloRound, guess string) (match.Outcome, SoloState, error) {
	round.mu.Lock()
	defer round.mu.Unlock()

	if round.TitleFound {
		return match.Outcome{}, soloStateOf(round), errRoundOver
	}

	next, out := app.Engine.Submit(ctx, round.State, guess)
	round.State = next
	app.touchSoloRound(round)

	if out.Degraded {
		logWarn("%sGuess %q scored with spelling hints only", requestTag(ctx), out.Guess)
	}
	if out.Status == match.StatusApplied {
		logInfo("%sGuess %q revealed %d word(s), %d near miss(es)", requestTag(ctx), out.Guess, out.HitCount, out.SimilarityCount)
	}
	return out, soloStateOf(round), nil
}

// submitSoloTitle compares title with the round's song. A match reveals all
// words and ends the round.
func (app *App) submitSoloTitle(ctx context.Context, round *SoloRound, title string) (bool, SoloState, error) {
	round.mu.Lock()
	defer round.mu.Unlock()

	if round.TitleFound {
		return true, soloStateOf(round), nil
	}
	if !titleMatches(title, round.Song.Title) {
		logInfo("%sWrong title guess %q", requestTag(ctx), title)
		return false, soloStateOf(round), nil
	}

	round.TitleFound = true
	round.State = round.State.RevealAll()
	app.touchSoloRound(round)
	logInfo("%sTitle found: %s by %s", requestTag(ctx), round.Song.Title, round.Song.Artist)
	return true, soloStateOf(round), nil
}

// retrySoloRound restarts the round on the same song.
func (app *App) retrySoloRound(ctx context.Context, sessionID string) (*SoloRound, bool) {
	round, exists := app.getSoloRound(sessionID)
	if !exists {
		return nil, false
	}
	round.mu.Lock()
	song := round.Song
	round.mu.Unlock()
	return app.createSoloRound(ctx, sessionID, song), true
}

func titleMatches(guess, title string) bool {
	g := normalize.Title(guess)
	return g != "" && g == normalize.Title(title)
}

// soloStateOf snapshots the round; callers hold round.mu.
func soloStateOf(round *SoloRound) SoloState {
	st := round.State
	out := SoloState{
		Tokens:        st.Mask(),
		History:       st.History(),
		RevealedCount: st.RevealedCount(),
		WordCount:     st.WordCount(),
		Complete:      st.Complete(),
		TitleFound:    round.TitleFound,
	}
	if out.History == nil {
		out.History = []match.HistoryEntry{}
	}
	if round.TitleFound {
		out.Artist = round.Song.Artist
		out.Title = round.Song.Title
	}
	return out
}

func normalizeGuess(input string) string {
	return strings.TrimSpace(input)
}
