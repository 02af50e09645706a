package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
)

// Route constants
const (
	RouteTeamCreate = "/team/session/create"
	RouteTeamJoin   = "/team/session/join"
	RouteTeamGuess  = "/team/session/guess"
	RouteTeamTitle  = "/team/session/title"
	RouteTeamState  = "/team/session/:code/state"
	RouteSoloNew    = "/solo/new"
	RouteSoloGuess  = "/solo/guess"
	RouteSoloTitle  = "/solo/title"
	RouteSoloState  = "/solo/state"
	RouteSoloRetry  = "/solo/retry"
	RouteSimilar    = "/similar"
	RouteHealthz    = "/healthz"
)

// Error message constants
const (
	ErrorInvalidBody       = "Invalid request body."
	ErrorInvalidSong       = "Song needs an artist, a title and lyrics."
	ErrorNoRound           = "No round in progress."
	ErrorRoundOver         = "Round is over."
	ErrorEmptyTitle        = "Title is required."
	ErrorEmptyWord         = "Word is required."
	ErrorNoCatalog         = "No songs available."
	ErrorNoSimilarity      = "Similarity service unavailable."
	ErrorTooManyRequests   = "Too many requests. Please slow down."
	ErrorSessionUnexpected = "Unexpected session error."
)

// Context key constants
type contextKey string

const (
	requestIDKey contextKey = "request_id"
)
