package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"rapantix/internal/lyrics"
	"rapantix/internal/match"
	"rapantix/internal/round"
)

const historyShown = 5

var bucketMarks = map[match.Bucket]string{
	match.BucketStrong:   "+",
	match.BucketMid:      "=",
	match.BucketLow:      "-",
	match.BucketSpelling: "~",
}

var bucketColors = map[match.Bucket]string{
	match.BucketStrong:   "\x1b[32m",
	match.BucketMid:      "\x1b[33m",
	match.BucketLow:      "\x1b[31m",
	match.BucketSpelling: "\x1b[36m",
}

const colorReset = "\x1b[0m"

// useColor honours NO_COLOR and only colours real terminals.
func useColor(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (g *Game) notify(msg string) {
	fmt.Fprintf(g.out, "! %s\n", msg)
}

func (g *Game) prompt() {
	switch g.machine.State() {
	case round.StateModeSelect:
		fmt.Fprintln(g.out, "Mode? s = solo, t = team")
	case round.StateSoloSetup:
		fmt.Fprintln(g.out, "Press enter to draw a song.")
	case round.StateTeamSetup:
		fmt.Fprintln(g.out, "Type new to open a session, or join CODE.")
	case round.StatePlaying:
		if g.machine.SongStatus() == round.SongFailed {
			fmt.Fprintln(g.out, "Press enter to try another song, or /menu.")
		}
	}
}

// renderTokens writes the masked lyrics. Hidden words are underscores, with
// the bucket mark of their near-miss hint when they carry one.
func renderTokens(masked []match.MaskedToken, color bool) string {
	var b strings.Builder
	for _, t := range masked {
		switch {
		case t.Kind == lyrics.KindBreak:
			b.WriteByte('\n')
		case t.Kind != lyrics.KindWord || t.Revealed:
			b.WriteString(t.Value)
		default:
			b.WriteString(strings.Repeat("_", t.Length))
			if t.Annotation == nil {
				continue
			}
			bucket := match.Classify(*t.Annotation)
			mark := "(" + bucketMarks[bucket] + ")"
			if color {
				mark = bucketColors[bucket] + mark + colorReset
			}
			b.WriteString(mark)
		}
	}
	return b.String()
}

func renderHistory(history []match.HistoryEntry) string {
	var b strings.Builder
	for i, h := range history {
		if i == historyShown {
			break
		}
		fmt.Fprintf(&b, "  %-16s %d hit%s", h.Word, h.HitCount, plural(h.HitCount))
		if h.Buckets.Total() > 0 {
			fmt.Fprintf(&b, "  +%d =%d -%d ~%d", h.Buckets.Strong, h.Buckets.Mid, h.Buckets.Low, h.Buckets.Spelling)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (g *Game) render() {
	if g.machine.SongStatus() != round.SongReady {
		g.prompt()
		return
	}
	view := g.view()
	fmt.Fprintln(g.out, renderTokens(view.Mask(), g.color))
	fmt.Fprintln(g.out)

	status := fmt.Sprintf("%d/%d words", view.RevealedCount(), view.WordCount())
	if g.machine.Mode() == round.ModeTeam {
		status = fmt.Sprintf("session %s | %s", g.code, status)
	} else if g.degraded {
		status += " | similarity offline, spelling hints only"
	}
	fmt.Fprintln(g.out, status)
	fmt.Fprint(g.out, renderHistory(view.History()))

	if g.machine.State() == round.StateWinOverlay {
		fmt.Fprintf(g.out, "Found it: %s by %s. /back to view the lyrics, /next for another song.\n", g.song.Title, g.song.Artist)
	} else if view.Complete() {
		fmt.Fprintln(g.out, "Every word is out. Name the song with /title.")
	}
}

func (g *Game) reportOutcome(out match.Outcome) {
	switch out.Status {
	case match.StatusDuplicate:
		g.notify(fmt.Sprintf("%q was already guessed.", out.Guess))
	case match.StatusApplied:
		fmt.Fprintf(g.out, "%q: %d hit%s, %d near miss%s\n", out.Guess,
			out.HitCount, plural(out.HitCount), out.SimilarityCount, pluralES(out.SimilarityCount))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func pluralES(n int) string {
	if n == 1 {
		return ""
	}
	return "es"
}
