package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"rapantix/internal/catalog"
	"rapantix/internal/lyrics"
	"rapantix/internal/match"
	"rapantix/internal/normalize"
	"rapantix/internal/round"
	"rapantix/internal/similarity"
	"rapantix/internal/team"
	"rapantix/internal/types"
)

type resultKind int

const (
	resultSoloGuess resultKind = iota
	resultTeamGuess
	resultTeamTitle
	resultTeamSetup
)

// guessResult carries the outcome of a network-bound action back to the
// event loop.
type guessResult struct {
	kind    resultKind
	roundID int

	state   match.State
	outcome match.Outcome

	guess   types.GuessResponse
	title   types.TitleGuessResponse
	session types.TeamState
	err     error
}

// Game is the terminal client. Every field is owned by the event loop; the
// goroutines it starts only report back through results.
type Game struct {
	ctx      context.Context
	cfg      *Config
	out      io.Writer
	color    bool
	log      *slog.Logger
	clientID string

	machine *round.Machine
	engine  *match.Engine
	client  *team.Client
	songs   *catalog.Catalog

	roundID   int
	song      types.Song
	tokens    []lyrics.Token
	solo      match.State
	degraded  bool
	completed []string

	code     string
	sync     *team.Sync
	winShown bool
	polls    <-chan types.TeamState
	stopPoll func()

	results    chan guessResult
	processing bool
}

// Play runs the client until /quit, end of input or ctx cancellation.
func Play(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	g, err := newGame(ctx, cfg, out)
	if err != nil {
		return err
	}
	return g.Run(in)
}

func newGame(ctx context.Context, cfg *Config, out io.Writer) (*Game, error) {
	logger := cfg.logger()

	var songs *catalog.Catalog
	if cfg.songFile == "" {
		var err error
		if songs, err = catalog.Load(cfg.catalogPath, logger); err != nil {
			return nil, err
		}
	}

	clientID := cfg.clientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	scorer := similarity.NewHTTPScorer(cfg.scorerURL(), 8*time.Second, logger)
	g := &Game{
		ctx:      ctx,
		cfg:      cfg,
		out:      out,
		color:    useColor(out),
		log:      logger,
		clientID: clientID,
		machine:  round.New(),
		engine:   match.NewEngine(scorer, cfg.topN, logger),
		client:   team.NewClient(cfg.server, logger),
		songs:    songs,
		results:  make(chan guessResult, 1),
	}
	g.machine.OnTransition(g.onTransition)
	return g, nil
}

// Run is the single event loop: typed lines, poll snapshots and results of
// in-flight actions are all handled here, one at a time.
func (g *Game) Run(in io.Reader) error {
	defer g.stopPolling()

	lines := readLines(in)
	g.prompt()
	for {
		select {
		case <-g.ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := g.handleLine(line); quit {
				return nil
			}
		case st, ok := <-g.polls:
			if !ok {
				g.polls = nil
				continue
			}
			g.handlePoll(st)
		case res := <-g.results:
			g.handleResult(res)
		}
	}
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// onTransition keeps polling bound to a ready team round in StatePlaying.
func (g *Game) onTransition(t round.Transition) {
	g.log.Debug("transition", slog.String("event", string(t.Event)), slog.String("from", string(t.From)), slog.String("to", string(t.To)))

	shouldPoll := t.To == round.StatePlaying && t.Mode == round.ModeTeam && t.Song == round.SongReady
	switch {
	case shouldPoll && g.stopPoll == nil:
		g.startPolling()
	case !shouldPoll && g.stopPoll != nil:
		g.stopPolling()
	}

	if t.To == round.StateModeSelect {
		g.roundID++
		g.processing = false
		g.song, g.tokens, g.sync, g.code = types.Song{}, nil, nil, ""
		g.winShown = false
	}
}

func (g *Game) startPolling() {
	poller := team.NewPoller(g.cfg.pollInterval, g.client.Fetcher(g.code, g.clientID), g.log)
	g.polls, g.stopPoll = poller.Start(g.ctx)
}

func (g *Game) stopPolling() {
	if g.stopPoll != nil {
		g.stopPoll()
	}
	g.polls, g.stopPoll = nil, nil
}

func (g *Game) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "/quit":
		return true
	case line == "/menu":
		_ = g.machine.Fire(round.EventReset)
		g.prompt()
		return false
	}

	switch g.machine.State() {
	case round.StateModeSelect:
		g.chooseMode(line)
	case round.StateSoloSetup:
		g.startSolo()
	case round.StateTeamSetup:
		g.setupTeam(line)
	case round.StatePlaying:
		g.play(line)
	case round.StateWinOverlay:
		g.overlay(line)
	}
	return false
}

func (g *Game) chooseMode(line string) {
	switch strings.ToLower(line) {
	case "s", "solo":
		_ = g.machine.Fire(round.EventChooseSolo)
	case "t", "team":
		_ = g.machine.Fire(round.EventChooseTeam)
	default:
		g.notify("Choose s (solo) or t (team).")
		return
	}
	g.prompt()
}

// pickSong returns the configured song file or a random catalog song not yet
// completed in this run.
func (g *Game) pickSong() (types.Song, error) {
	if g.cfg.songFile != "" {
		data, err := os.ReadFile(g.cfg.songFile)
		if err != nil {
			return types.Song{}, fmt.Errorf("read song file: %w", err)
		}
		var song types.Song
		if err := json.Unmarshal(data, &song); err != nil {
			return types.Song{}, fmt.Errorf("decode song file: %w", err)
		}
		if !catalog.Valid(song) {
			return types.Song{}, errors.New("song file needs artist, title and lyrics")
		}
		return song, nil
	}
	song, reset, err := g.songs.Random(g.ctx, g.completed)
	if reset {
		g.completed = nil
	}
	return song, err
}

func (g *Game) startSolo() {
	if err := g.machine.Fire(round.EventStart); err != nil {
		g.notify(err.Error())
		return
	}
	song, err := g.pickSong()
	if err != nil {
		g.notify("No song: " + err.Error())
		_ = g.machine.Fire(round.EventSongFailed)
		g.prompt()
		return
	}
	g.loadSong(song)
	g.solo = match.NewState(g.tokens)
	g.degraded = false
	g.render()
}

// loadSong tokenizes song and finishes the loading sub-state.
func (g *Game) loadSong(song types.Song) {
	g.roundID++
	g.winShown = false
	g.song = song
	g.tokens = lyrics.Tokenize(song.Lyrics)
	if lyrics.WordCount(g.tokens) == 0 {
		_ = g.machine.Fire(round.EventSongFailed)
		g.notify("That song has no words to guess.")
		return
	}
	_ = g.machine.Fire(round.EventSongLoaded)
}

func (g *Game) setupTeam(line string) {
	if g.processing {
		g.notify("Still waiting for the session service...")
		return
	}
	fields := strings.Fields(line)
	switch {
	case len(fields) == 1 && strings.EqualFold(fields[0], "new"):
		song, err := g.pickSong()
		if err != nil {
			g.notify("No song: " + err.Error())
			return
		}
		g.runAsync(resultTeamSetup, func(ctx context.Context, res *guessResult) {
			res.session, res.err = g.client.Create(ctx, g.clientID, g.cfg.minStreams, song)
		})
	case len(fields) == 2 && strings.EqualFold(fields[0], "join"):
		code := fields[1]
		g.runAsync(resultTeamSetup, func(ctx context.Context, res *guessResult) {
			res.session, res.err = g.client.Join(ctx, code, g.clientID)
		})
	default:
		g.notify("Type new, or join CODE.")
	}
}

func (g *Game) play(line string) {
	if !g.machine.Active() {
		if g.machine.SongStatus() == round.SongFailed && g.machine.Mode() == round.ModeSolo {
			g.startSolo()
			return
		}
		g.notify("The song is not ready.")
		return
	}
	if line == "" {
		return
	}

	switch {
	case strings.HasPrefix(line, "/title"):
		g.guessTitle(strings.TrimSpace(strings.TrimPrefix(line, "/title")))
	case line == "/reveal":
		g.revealTeammateTitle()
	case strings.HasPrefix(line, "/"):
		g.notify("Commands: /title <title>, /reveal, /menu, /quit.")
	default:
		g.guessWord(line)
	}
}

func (g *Game) guessWord(word string) {
	if g.processing {
		g.notify("One guess at a time.")
		return
	}
	if g.machine.Mode() == round.ModeSolo {
		state := g.solo
		g.runAsync(resultSoloGuess, func(ctx context.Context, res *guessResult) {
			res.state, res.outcome = g.engine.Submit(ctx, state, word)
		})
		return
	}

	if g.sync.Guessed(word) {
		g.notify(fmt.Sprintf("%q was already guessed.", word))
		return
	}
	code := g.code
	g.runAsync(resultTeamGuess, func(ctx context.Context, res *guessResult) {
		res.guess, res.err = g.client.Guess(ctx, code, g.clientID, word)
	})
}

func (g *Game) guessTitle(title string) {
	if title == "" {
		g.notify("Usage: /title <song title>")
		return
	}
	if g.processing {
		g.notify("One guess at a time.")
		return
	}
	if g.machine.Mode() == round.ModeSolo {
		if normalize.Title(title) != normalize.Title(g.song.Title) {
			g.notify("Not the title.")
			return
		}
		g.solo = g.solo.RevealAll()
		g.completed = append(g.completed, g.song.Title)
		_ = g.machine.Fire(round.EventTitleFound)
		g.render()
		return
	}
	code := g.code
	g.runAsync(resultTeamTitle, func(ctx context.Context, res *guessResult) {
		res.title, res.err = g.client.GuessTitle(ctx, code, g.clientID, title)
	})
}

// revealTeammateTitle shows the title a teammate found. The round goes on.
func (g *Game) revealTeammateTitle() {
	if g.sync == nil || !g.sync.TitleRevealAvailable() {
		g.notify("Nothing to reveal yet.")
		return
	}
	fmt.Fprintf(g.out, "Your teammate found it: %s by %s\n", g.song.Title, g.song.Artist)
}

func (g *Game) overlay(line string) {
	switch line {
	case "/back":
		_ = g.machine.Fire(round.EventViewLyrics)
		g.render()
	case "/next":
		if g.machine.Mode() == round.ModeSolo {
			g.startSolo()
			return
		}
		_ = g.machine.Fire(round.EventReset)
		g.prompt()
	default:
		g.notify("Type /back to view the lyrics, /next for another song or /menu.")
	}
}

// runAsync runs fn off the event loop; its result comes back on g.results.
func (g *Game) runAsync(kind resultKind, fn func(ctx context.Context, res *guessResult)) {
	g.processing = true
	res := guessResult{kind: kind, roundID: g.roundID}
	go func() {
		fn(g.ctx, &res)
		select {
		case g.results <- res:
		case <-g.ctx.Done():
		}
	}()
}

func (g *Game) handleResult(res guessResult) {
	if res.roundID != g.roundID {
		g.log.Debug("dropping stale result", slog.Int("round", res.roundID))
		return
	}
	g.processing = false

	switch res.kind {
	case resultSoloGuess:
		if !g.machine.Active() {
			return
		}
		g.solo = res.state
		g.degraded = res.outcome.Degraded
		g.reportOutcome(res.outcome)
		g.render()

	case resultTeamSetup:
		if res.err != nil {
			g.notify("Session error: " + res.err.Error())
			return
		}
		g.code = res.session.Code
		if err := g.machine.Fire(round.EventStart); err != nil {
			g.notify(err.Error())
			return
		}
		g.loadSong(res.session.Song)
		g.sync = team.NewSync(g.tokens, g.clientID)
		g.sync.Apply(res.session)
		g.render()

	case resultTeamGuess:
		if res.err != nil {
			g.notify("Guess not sent: " + res.err.Error())
			return
		}
		if !res.guess.Accepted {
			g.notify(fmt.Sprintf("%q was already guessed.", res.guess.Event.Word))
		}
		if g.sync.AddEvent(res.guess.Event) {
			g.render()
		}

	case resultTeamTitle:
		if res.err != nil {
			g.notify("Title not sent: " + res.err.Error())
			return
		}
		if !res.title.Correct {
			g.notify("Not the title.")
		}
		g.sync.Apply(res.title.TeamState)
		g.checkTeamWin()
	}
}

func (g *Game) handlePoll(st types.TeamState) {
	if g.sync == nil || st.Code != g.code {
		return
	}
	hadReveal := g.sync.TitleRevealAvailable()
	if g.sync.Apply(st) {
		g.render()
	}
	if !hadReveal && g.sync.TitleRevealAvailable() {
		g.notify("Your teammate found the title. Type /reveal to see it, or keep guessing.")
	}
	g.checkTeamWin()
}

// checkTeamWin shows the overlay once per round; /back must be able to leave it.
func (g *Game) checkTeamWin() {
	if g.winShown || !g.sync.Won() {
		return
	}
	if g.machine.State() == round.StatePlaying {
		g.winShown = true
		_ = g.machine.Fire(round.EventTitleFound)
		g.render()
	}
}

// view is the state shown for the current mode.
func (g *Game) view() match.State {
	if g.machine.Mode() == round.ModeTeam && g.sync != nil {
		return g.sync.View()
	}
	return g.solo
}
