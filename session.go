package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rapantix/internal/lyrics"
	"rapantix/internal/match"
	"rapantix/internal/types"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || !isValidSessionID(sessionID) {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", secure, true)
		logInfo("Created new session: %s", sessionID)
	}
	return sessionID
}

// isValidSessionID accepts canonical 36-character UUIDs only.
func isValidSessionID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// getSoloRound returns the round for a session and refreshes its access time.
func (app *App) getSoloRound(sessionID string) (*SoloRound, bool) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	round, exists := app.SoloRounds[sessionID]
	if !exists {
		return nil, false
	}
	round.LastAccessTime = time.Now()
	return round, true
}

// touchSoloRound refreshes the access time. LastAccessTime is only read or
// written under SessionMutex.
func (app *App) touchSoloRound(round *SoloRound) {
	app.SessionMutex.Lock()
	round.LastAccessTime = time.Now()
	app.SessionMutex.Unlock()
}

// createSoloRound replaces any round of the session with a fresh one on song.
func (app *App) createSoloRound(ctx context.Context, sessionID string, song types.Song) *SoloRound {
	tokens := lyrics.Tokenize(song.Lyrics)
	round := &SoloRound{
		Song:           song,
		State:          match.NewState(tokens),
		LastAccessTime: time.Now(),
	}
	app.SessionMutex.Lock()
	app.SoloRounds[sessionID] = round
	app.SessionMutex.Unlock()
	logInfo("%sStarted solo round for session %s (%d words)", requestTag(ctx), sessionID, lyrics.WordCount(tokens))
	return round
}
