package main

import (
	"sync"
	"time"

	"rapantix/internal/match"
	"rapantix/internal/types"
)

// SoloRound is a player's single-player round, keyed by session cookie.
type SoloRound struct {
	mu             sync.Mutex // Serialises guesses; the similarity call runs under it
	Song           types.Song
	State          match.State
	TitleFound     bool
	LastAccessTime time.Time  // Guarded by App.SessionMutex
}

// SoloNewRequest starts a round with the given song, or a random catalog
// song whose title is not in Completed.
type SoloNewRequest struct {
	Song      *types.Song `json:"song,omitempty"`
	Completed []string    `json:"completed,omitempty"`
}

type SoloGuessRequest struct {
	Guess string `json:"guess"`
}

type SoloTitleRequest struct {
	Title string `json:"title"`
}

// SoloState is the player's view of a round. Unrevealed words only carry
// their length; artist and title appear once the title is found.
type SoloState struct {
	Tokens        []match.MaskedToken  `json:"tokens"`
	History       []match.HistoryEntry `json:"history"`
	RevealedCount int                  `json:"revealedCount"`
	WordCount     int                  `json:"wordCount"`
	Complete      bool                 `json:"complete"`
	TitleFound    bool                 `json:"titleFound"`
	Artist        string               `json:"artist,omitempty"`
	Title         string               `json:"title,omitempty"`
	CatalogReset  bool                 `json:"catalogReset,omitempty"`
}

type SoloGuessResponse struct {
	Outcome match.Outcome `json:"outcome"`
	SoloState
}

type SoloTitleResponse struct {
	Correct bool `json:"correct"`
	SoloState
}
