package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rapantix/internal/round"
	"rapantix/internal/session"
	"rapantix/internal/types"
)

var testSong = types.Song{
	Artist: "Rive Nord",
	Title:  "Nuit Blanche (feat. Mira)",
	Lyrics: "[Refrain]\nLa nuit tombe, la ville brille\nNuit blanche",
}

// newServiceServer serves the session endpoints from an in-memory store and
// a /similar relay that always answers neighbours.
func newServiceServer(t *testing.T, neighbours []types.SimilarWord) *httptest.Server {
	t.Helper()
	store := session.NewStore(0)

	reply := func(w http.ResponseWriter, v any, err error) {
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
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
			}
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /team/session/create", func(w http.ResponseWriter, r *http.Request) {
		var req types.CreateSessionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		st, err := store.Create(req.ClientID, req.MinStreams, req.Song)
		reply(w, st, err)
	})
	mux.HandleFunc("POST /team/session/join", func(w http.ResponseWriter, r *http.Request) {
		var req types.JoinSessionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		st, err := store.Join(req.Code, req.ClientID)
		reply(w, st, err)
	})
	mux.HandleFunc("POST /team/session/guess", func(w http.ResponseWriter, r *http.Request) {
		var req types.GuessRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		ev, accepted, err := store.AddGuess(req.Code, req.ClientID, req.Word)
		reply(w, types.GuessResponse{Accepted: accepted, Event: ev}, err)
	})
	mux.HandleFunc("POST /team/session/title", func(w http.ResponseWriter, r *http.Request) {
		var req types.TitleGuessRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		correct, st, err := store.GuessTitle(req.Code, req.ClientID, req.Title)
		reply(w, types.TitleGuessResponse{Correct: correct, TeamState: st}, err)
	})
	mux.HandleFunc("GET /team/session/{code}/state", func(w http.ResponseWriter, r *http.Request) {
		st, err := store.State(r.PathValue("code"), r.URL.Query().Get("clientId"))
		reply(w, st, err)
	})
	mux.HandleFunc("POST /similar", func(w http.ResponseWriter, r *http.Request) {
		reply(w, types.SimilarResponse{Origin: "test", Results: neighbours}, nil)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, server string) *Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "songs.json")
	data, err := json.Marshal(types.SongList{Songs: []types.Song{testSong}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return &Config{
		server:       server,
		topN:         15,
		catalogPath:  path,
		pollInterval: 10 * time.Millisecond,
	}
}

func newTestGame(t *testing.T, cfg *Config, clientID string) (*Game, *bytes.Buffer) {
	t.Helper()
	cfg.clientID = clientID
	out := &bytes.Buffer{}
	ctx, cancel := context.WithCancel(context.Background())
	g, err := newGame(ctx, cfg, out)
	require.NoError(t, err)
	t.Cleanup(func() {
		g.stopPolling()
		cancel()
	})
	return g, out
}

func waitResult(t *testing.T, g *Game) {
	t.Helper()
	select {
	case res := <-g.results:
		g.handleResult(res)
	case <-time.After(5 * time.Second):
		t.Fatal("no result from in-flight action")
	}
}

// pollUntil feeds polled snapshots to g until cond holds.
func pollUntil(t *testing.T, g *Game, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case st, ok := <-g.polls:
			require.True(t, ok, "poller stopped")
			g.handlePoll(st)
		case <-deadline:
			t.Fatal("condition not reached by polling")
		}
	}
}

func TestSoloRound(t *testing.T) {
	srv := newServiceServer(t, []types.SimilarWord{{Term: "ville", Score: 0.75}})
	g, out := newTestGame(t, testConfig(t, srv.URL), "solo")

	g.handleLine("s")
	require.Equal(t, round.StateSoloSetup, g.machine.State())
	g.handleLine("")
	require.True(t, g.machine.Active())
	assert.Equal(t, 8, g.solo.WordCount())

	g.handleLine("nuit")
	assert.True(t, g.processing)
	waitResult(t, g)
	assert.False(t, g.processing)
	assert.Equal(t, 2, g.solo.RevealedCount())
	assert.Contains(t, out.String(), `"nuit": 2 hits, 1 near miss`)
	assert.Contains(t, out.String(), "_____(+)")

	g.handleLine("/title nuit blanche")
	assert.Equal(t, round.StateWinOverlay, g.machine.State())
	assert.True(t, g.solo.Complete())
	assert.Equal(t, []string{testSong.Title}, g.completed)

	g.handleLine("/back")
	assert.Equal(t, round.StatePlaying, g.machine.State())
	g.handleLine("/menu")
	assert.Equal(t, round.StateModeSelect, g.machine.State())
	assert.Nil(t, g.tokens)
}

func TestSoloRound_OneGuessAtATime(t *testing.T) {
	srv := newServiceServer(t, nil)
	g, out := newTestGame(t, testConfig(t, srv.URL), "solo")
	g.handleLine("s")
	g.handleLine("")

	g.handleLine("ville")
	g.handleLine("brille")
	assert.Contains(t, out.String(), "One guess at a time.")
	waitResult(t, g)

	select {
	case <-g.results:
		t.Fatal("second guess was submitted while the first was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, g.solo.RevealedCount())
}

func TestSoloRound_TitleWaitsForGuess(t *testing.T) {
	srv := newServiceServer(t, nil)
	g, out := newTestGame(t, testConfig(t, srv.URL), "solo")
	g.handleLine("s")
	g.handleLine("")

	g.handleLine("nuit")
	g.handleLine("/title nuit blanche")
	assert.Contains(t, out.String(), "One guess at a time.")
	assert.Equal(t, round.StatePlaying, g.machine.State())
	waitResult(t, g)
	assert.Equal(t, 2, g.solo.RevealedCount())

	g.handleLine("/title nuit blanche")
	require.Equal(t, round.StateWinOverlay, g.machine.State())
	g.handleLine("/back")
	assert.Equal(t, round.StatePlaying, g.machine.State())
	assert.Equal(t, g.solo.WordCount(), g.solo.RevealedCount())
	assert.False(t, g.processing)
}

func TestSoloRound_SimilarityDown(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	g, out := newTestGame(t, cfg, "solo")
	g.handleLine("s")
	g.handleLine("")

	g.handleLine("tombe")
	waitResult(t, g)
	assert.Equal(t, 1, g.solo.RevealedCount())
	assert.True(t, g.degraded)
	assert.Contains(t, out.String(), "similarity offline")
}

func TestSoloRound_StaleResultDropped(t *testing.T) {
	srv := newServiceServer(t, nil)
	g, _ := newTestGame(t, testConfig(t, srv.URL), "solo")
	g.handleLine("s")
	g.handleLine("")

	g.handleLine("nuit")
	g.handleLine("/menu")
	assert.False(t, g.processing)
	waitResult(t, g)
	assert.Equal(t, round.StateModeSelect, g.machine.State())
	assert.Equal(t, 0, g.solo.RevealedCount())
}

func TestTeamRound(t *testing.T) {
	srv := newServiceServer(t, nil)
	host, hostOut := newTestGame(t, testConfig(t, srv.URL), "host")
	guest, guestOut := newTestGame(t, testConfig(t, srv.URL), "guest")

	host.handleLine("t")
	host.handleLine("new")
	waitResult(t, host)
	require.True(t, host.machine.Active())
	require.Len(t, host.code, session.CodeLength)
	assert.NotNil(t, host.stopPoll)

	guest.handleLine("t")
	guest.handleLine("join " + host.code)
	waitResult(t, guest)
	require.True(t, guest.machine.Active())
	assert.Equal(t, testSong.Title, guest.song.Title)

	host.handleLine("nuit")
	waitResult(t, host)
	assert.Equal(t, 2, host.sync.View().RevealedCount())

	pollUntil(t, guest, func() bool { return guest.sync.View().RevealedCount() == 2 })

	guest.handleLine("NUIT")
	assert.False(t, guest.processing)
	assert.Contains(t, guestOut.String(), `"NUIT" was already guessed.`)

	guest.handleLine("/title Nuit Blanche")
	waitResult(t, guest)
	assert.Equal(t, round.StateWinOverlay, guest.machine.State())
	assert.True(t, guest.sync.View().Complete())
	assert.Nil(t, guest.stopPoll)

	guest.handleLine("/back")
	require.Equal(t, round.StatePlaying, guest.machine.State())
	require.NotNil(t, guest.stopPoll)
	select {
	case st := <-guest.polls:
		guest.handlePoll(st)
	case <-time.After(5 * time.Second):
		t.Fatal("no poll after /back")
	}
	assert.Equal(t, round.StatePlaying, guest.machine.State())
	assert.True(t, guest.sync.View().Complete())

	pollUntil(t, host, func() bool { return host.sync.TitleRevealAvailable() })
	assert.Equal(t, round.StatePlaying, host.machine.State())
	assert.Contains(t, hostOut.String(), "Your teammate found the title.")
	host.handleLine("/reveal")
	assert.Contains(t, hostOut.String(), "Your teammate found it: Nuit Blanche (feat. Mira) by Rive Nord")

	host.handleLine("/menu")
	assert.Nil(t, host.stopPoll)
	assert.Nil(t, host.sync)
}

func TestTeamRound_SessionUnavailable(t *testing.T) {
	g, out := newTestGame(t, testConfig(t, "http://127.0.0.1:1"), "host")
	g.handleLine("t")
	g.handleLine("new")
	waitResult(t, g)
	assert.Equal(t, round.StateTeamSetup, g.machine.State())
	assert.Contains(t, out.String(), "Session error")
}

func TestTeamRound_UnknownCode(t *testing.T) {
	srv := newServiceServer(t, nil)
	g, out := newTestGame(t, testConfig(t, srv.URL), "guest")
	g.handleLine("t")
	g.handleLine("join ZZZZZZ")
	waitResult(t, g)
	assert.Equal(t, round.StateTeamSetup, g.machine.State())
	assert.Contains(t, out.String(), "session not found")
}

func TestRun_QuitAndEOF(t *testing.T) {
	srv := newServiceServer(t, nil)
	g, out := newTestGame(t, testConfig(t, srv.URL), "solo")
	require.NoError(t, g.Run(bytes.NewBufferString("s\n\n/quit\nnuit\n")))
	assert.Contains(t, out.String(), "Mode?")
	assert.Equal(t, 0, g.solo.RevealedCount())

	g2, _ := newTestGame(t, testConfig(t, srv.URL), "solo")
	require.NoError(t, g2.Run(bytes.NewBufferString("x\n")))
}

func TestNewCmd_EnvBinding(t *testing.T) {
	t.Setenv("RAPANTIX_SERVER", "http://example.test:9000")
	t.Setenv("RAPANTIX_POLL_INTERVAL", "3s")

	cfg := &Config{}
	newCmd(cfg)
	assert.Equal(t, "http://example.test:9000", cfg.server)
	assert.Equal(t, 3*time.Second, cfg.pollInterval)
	assert.Equal(t, 15, cfg.topN)
	assert.Equal(t, "http://example.test:9000", cfg.scorerURL())
}

func TestConfig_Validate(t *testing.T) {
	good := Config{server: "http://localhost:8080", topN: 15, pollInterval: time.Second, catalogPath: "songs.json"}
	require.NoError(t, good.validate())

	bad := good
	bad.topN = 0
	assert.Error(t, bad.validate())

	bad = good
	bad.server = "not a url"
	assert.Error(t, bad.validate())

	bad = good
	bad.catalogPath = ""
	assert.Error(t, bad.validate())
}

func TestNewCmd_VersionFlag(t *testing.T) {
	cfg := &Config{}
	cmd := newCmd(cfg)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"-V"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "rapantix play v"+releaseVersion+"\n", out.String())
}
