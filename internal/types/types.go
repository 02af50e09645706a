package types

import (
	"encoding/json"
	"math"
	"time"
)

// Song is a hidden song as exchanged with clients. Lyrics are already
// cleaned of provider metadata.
type Song struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Lyrics string `json:"lyrics"`
}

type SongList struct {
	Songs []Song `json:"songs"`
}

// GuessEvent is one entry of a team session's guess log. Seq is assigned by
// the session service and is the only ordering key.
type GuessEvent struct {
	Seq       int       `json:"seq"`
	Word      string    `json:"word"`
	ClientID  string    `json:"clientId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeamState is the per-client snapshot of a team session.
type TeamState struct {
	Code               string       `json:"code"`
	Role               string       `json:"role"`
	PlayerCount        int          `json:"playerCount"`
	IsFull             bool         `json:"isFull"`
	MinStreams         int          `json:"minStreams"`
	Song               Song         `json:"song"`
	TitleFound         bool         `json:"titleFound"`
	YouFoundTitle      bool         `json:"youFoundTitle"`
	TeammateFoundTitle bool         `json:"teammateFoundTitle"`
	Guesses            []GuessEvent `json:"guesses"`
}

type CreateSessionRequest struct {
	ClientID   string `json:"clientId"`
	MinStreams int    `json:"minStreams"`
	Song       Song   `json:"song"`
}

type JoinSessionRequest struct {
	Code     string `json:"code"`
	ClientID string `json:"clientId"`
}

type GuessRequest struct {
	Code     string `json:"code"`
	ClientID string `json:"clientId"`
	Word     string `json:"word"`
}

type GuessResponse struct {
	Accepted bool       `json:"accepted"`
	Event    GuessEvent `json:"event"`
}

type TitleGuessRequest struct {
	Code     string `json:"code"`
	ClientID string `json:"clientId"`
	Title    string `json:"title"`
}

type TitleGuessResponse struct {
	Correct bool `json:"correct"`
	TeamState
}

type SimilarRequest struct {
	Word string `json:"word"`
	TopN int    `json:"topn"`
}

// SimilarWord is one neighbour from the similarity model. A missing or null
// score decodes to NaN and encodes back to null.
type SimilarWord struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

type similarWordJSON struct {
	Term  string   `json:"term"`
	Score *float64 `json:"score"`
}

func (w SimilarWord) MarshalJSON() ([]byte, error) {
	raw := similarWordJSON{Term: w.Term}
	if !math.IsNaN(w.Score) {
		raw.Score = &w.Score
	}
	return json.Marshal(raw)
}

func (w *SimilarWord) UnmarshalJSON(data []byte) error {
	var raw similarWordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.Term = raw.Term
	w.Score = math.NaN()
	if raw.Score != nil {
		w.Score = *raw.Score
	}
	return nil
}

type SimilarResponse struct {
	Origin     string        `json:"origin"`
	Normalized string        `json:"normalized"`
	Results    []SimilarWord `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
