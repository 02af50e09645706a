package main

import (
	"context"
	"time"
)

// cleanupSoloRounds drops solo rounds idle for longer than the session timeout.
func (app *App) cleanupSoloRounds(now time.Time) int {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()

	removed := 0
	for sessionID, round := range app.SoloRounds {
		if round.LastAccessTime.IsZero() || now.Sub(round.LastAccessTime) > app.SessionTimeout {
			delete(app.SoloRounds, sessionID)
			removed++
		}
	}
	return removed
}

// sweepOnce expires idle solo rounds and team sessions.
func (app *App) sweepOnce(now time.Time) (solo, team int) {
	solo = app.cleanupSoloRounds(now)
	team = app.Teams.Sweep()
	if solo > 0 || team > 0 {
		logInfo("Session cleanup completed: removed %d solo round%s, %d team session%s",
			solo, plural(solo), team, plural(team))
	}
	return solo, team
}

// startSweeper runs sweepOnce every interval until ctx is done.
func (app *App) startSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				app.sweepOnce(now)
			}
		}
	}()
}
