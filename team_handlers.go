package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rapantix/internal/session"
	"rapantix/internal/types"
)

func (app *App) teamCreateHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req types.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidBody})
		return
	}
	state, err := app.Teams.Create(req.ClientID, req.MinStreams, req.Song)
	if err != nil {
		app.teamError(c, err)
		return
	}
	logInfo("%sCreated team session %s", requestTag(ctx), state.Code)
	c.JSON(http.StatusOK, state)
}

func (app *App) teamJoinHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req types.JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidBody})
		return
	}
	state, err := app.Teams.Join(req.Code, req.ClientID)
	if err != nil {
		app.teamError(c, err)
		return
	}
	logInfo("%sClient joined team session %s (%d/%d)", requestTag(ctx), state.Code, state.PlayerCount, session.MaxPlayers)
	c.JSON(http.StatusOK, state)
}

// teamGuessHandler appends a word to the session log. A word already in the
// log is answered with accepted=false and the existing event.
func (app *App) teamGuessHandler(c *gin.Context) {
	var req types.GuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidBody})
		return
	}
	event, accepted, err := app.Teams.AddGuess(req.Code, req.ClientID, req.Word)
	if err != nil {
		app.teamError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.GuessResponse{Accepted: accepted, Event: event})
}

func (app *App) teamTitleHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req types.TitleGuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidBody})
		return
	}
	correct, state, err := app.Teams.GuessTitle(req.Code, req.ClientID, req.Title)
	if err != nil {
		app.teamError(c, err)
		return
	}
	if correct {
		logInfo("%sTitle found in team session %s", requestTag(ctx), state.Code)
	}
	c.JSON(http.StatusOK, types.TitleGuessResponse{Correct: correct, TeamState: state})
}

func (app *App) teamStateHandler(c *gin.Context) {
	state, err := app.Teams.State(c.Param("code"), c.Query("clientId"))
	if err != nil {
		app.teamError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// teamError maps session store errors to HTTP statuses.
func (app *App) teamError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrFull):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNotJoined):
		status = http.StatusForbidden
	case errors.Is(err, session.ErrNoCode):
		status = http.StatusServiceUnavailable
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logWarn("%sUnexpected session error: %v", requestTag(c.Request.Context()), err)
		msg = ErrorSessionUnexpected
	}
	c.JSON(status, types.ErrorResponse{Error: msg})
}
