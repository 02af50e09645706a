package main

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"rapantix/internal/catalog"
	"rapantix/internal/normalize"
	"rapantix/internal/similarity"
	"rapantix/internal/types"
)

// soloNewHandler starts a solo round on the posted song or a random catalog song.
func (app *App) soloNewHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := app.getOrCreateSession(c)

	var req SoloNewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logWarn("%sFailed to parse new round request: %v", requestTag(ctx), err)
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidBody})
		return
	}

	var (
		song  types.Song
		reset bool
	)
	if req.Song != nil {
		if !catalog.Valid(*req.Song) {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidSong})
			return
		}
		song = *req.Song
	} else {
		var err error
		song, reset, err = app.pickSong(ctx, req.Completed)
		if err != nil {
			logWarn("%sNo song for new round: %v", requestTag(ctx), err)
			c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: ErrorNoCatalog})
			return
		}
	}

	round := app.createSoloRound(ctx, sessionID, song)
	round.mu.Lock()
	state := soloStateOf(round)
	round.mu.Unlock()
	state.CatalogReset = reset
	c.JSON(http.StatusOK, state)
}

// soloGuessHandler submits a word guess to the session's round.
func (app *App) soloGuessHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := app.getOrCreateSession(c)

	var req SoloGuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidBody})
		return
	}

	round, exists := app.getSoloRound(sessionID)
	if !exists {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: ErrorNoRound})
		return
	}

	out, state, err := app.submitSoloGuess(ctx, round, normalizeGuess(req.Guess))
	if err != nil {
		c.JSON(http.StatusConflict, types.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SoloGuessResponse{Outcome: out, SoloState: state})
}

// soloTitleHandler checks a title guess against the session's round.
func (app *App) soloTitleHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := app.getOrCreateSession(c)

	var req SoloTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidBody})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorEmptyTitle})
		return
	}

	round, exists := app.getSoloRound(sessionID)
	if !exists {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: ErrorNoRound})
		return
	}

	correct, state, err := app.submitSoloTitle(ctx, round, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SoloTitleResponse{Correct: correct, SoloState: state})
}

// soloStateHandler returns the masked view of the session's round.
func (app *App) soloStateHandler(c *gin.Context) {
	sessionID := app.getOrCreateSession(c)
	round, exists := app.getSoloRound(sessionID)
	if !exists {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: ErrorNoRound})
		return
	}
	round.mu.Lock()
	state := soloStateOf(round)
	round.mu.Unlock()
	c.JSON(http.StatusOK, state)
}

// soloRetryHandler restarts the session's round on the same song.
func (app *App) soloRetryHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := app.getOrCreateSession(c)
	round, exists := app.retrySoloRound(ctx, sessionID)
	if !exists {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: ErrorNoRound})
		return
	}
	round.mu.Lock()
	state := soloStateOf(round)
	round.mu.Unlock()
	c.JSON(http.StatusOK, state)
}

// similarHandler relays a neighbour query to the configured similarity model.
func (app *App) similarHandler(c *gin.Context) {
	ctx := c.Request.Context()

	var req types.SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidBody})
		return
	}
	word := strings.TrimSpace(req.Word)
	if word == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorEmptyWord})
		return
	}
	if app.Scorer == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: ErrorNoSimilarity})
		return
	}

	topN := req.TopN
	if topN == 0 {
		topN = similarity.DefaultTopN
	}
	results, err := app.Scorer.Similar(ctx, word, similarity.ClampTopN(topN))
	if err != nil {
		logWarn("%sSimilarity lookup for %q failed: %v", requestTag(ctx), word, err)
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: ErrorNoSimilarity})
		return
	}
	if results == nil {
		results = []types.SimilarWord{}
	}
	c.JSON(http.StatusOK, types.SimilarResponse{
		Origin:     app.Scorer.Name(),
		Normalized: normalize.Text(word),
		Results:    results,
	})
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := time.Since(app.StartTime)
	app.SessionMutex.RLock()
	soloRounds := len(app.SoloRounds)
	app.SessionMutex.RUnlock()
	songs := 0
	if app.Catalog != nil {
		songs = app.Catalog.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"env":           map[bool]string{true: "production", false: "development"}[app.IsProduction],
		"team_sessions": app.Teams.Len(),
		"solo_rounds":   soloRounds,
		"songs_loaded":  songs,
		"similarity":    app.scorerName(),
		"uptime":        formatUptime(uptime),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
