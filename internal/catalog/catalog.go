// Package catalog holds the songs the server can hand out for solo rounds.
package catalog

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"github.com/samber/lo"

	"rapantix/internal/normalize"
	"rapantix/internal/types"
)

var ErrEmpty = errors.New("catalog is empty")

type Catalog struct {
	songs []types.Song
	log   *slog.Logger
}

// Load reads a songs file. Entries missing an artist, title or lyrics are
// skipped.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var list types.SongList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return New(list.Songs, logger), nil
}

func New(songs []types.Song, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "catalog")
	valid := lo.Filter(songs, func(s types.Song, _ int) bool {
		if !Valid(s) {
			logger.Warn("skipping incomplete song", slog.String("title", s.Title), slog.String("artist", s.Artist))
			return false
		}
		return true
	})
	return &Catalog{songs: valid, log: logger}
}

// Valid reports whether artist, title and lyrics are all non-blank.
func Valid(s types.Song) bool {
	return strings.TrimSpace(s.Artist) != "" &&
		strings.TrimSpace(s.Title) != "" &&
		strings.TrimSpace(s.Lyrics) != ""
}

func (c *Catalog) Len() int { return len(c.songs) }

// Random picks a song whose title is not in completed. When every song has
// been completed it picks from the whole catalog and reports reset=true.
func (c *Catalog) Random(ctx context.Context, completed []string) (types.Song, bool, error) {
	if len(c.songs) == 0 {
		return types.Song{}, false, ErrEmpty
	}
	if err := ctx.Err(); err != nil {
		return types.Song{}, false, err
	}

	done := lo.SliceToMap(completed, func(t string) (string, struct{}) {
		return normalize.Title(t), struct{}{}
	})
	available := lo.Filter(c.songs, func(s types.Song, _ int) bool {
		_, ok := done[normalize.Title(s.Title)]
		return !ok
	})

	reset := false
	if len(available) == 0 {
		c.log.InfoContext(ctx, "all songs completed, reset needed",
			slog.Int("total", len(c.songs)), slog.Int("completed", len(completed)))
		available = c.songs
		reset = true
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(available))))
	if err != nil {
		c.log.WarnContext(ctx, "random pick failed, using first song", slog.String("error", err.Error()))
		return available[0], reset, nil
	}
	return available[n.Int64()], reset, nil
}
