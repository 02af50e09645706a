package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	server        string
	similarityURL string
	topN          int
	catalogPath   string
	songFile      string
	minStreams    int
	clientID      string
	pollInterval  time.Duration
	verbose       bool
}

func (c *Config) validate() error {
	if _, err := url.ParseRequestURI(c.server); err != nil {
		return fmt.Errorf("invalid --server %q: %w", c.server, err)
	}
	if c.similarityURL != "" {
		if _, err := url.ParseRequestURI(c.similarityURL); err != nil {
			return fmt.Errorf("invalid --similarity-url %q: %w", c.similarityURL, err)
		}
	}
	if c.topN < 1 || c.topN > 60 {
		return fmt.Errorf("invalid topn (must be between 1-60 inclusive): %d", c.topN)
	}
	if c.pollInterval <= 0 {
		return errors.New("--poll-interval must be positive")
	}
	if c.catalogPath == "" && c.songFile == "" {
		return errors.New("one of --catalog or --song-file is required")
	}
	return nil
}

// scorerURL is where the similarity relay lives; the game server by default.
func (c *Config) scorerURL() string {
	if c.similarityURL != "" {
		return c.similarityURL
	}
	return c.server
}

func (c *Config) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RAPANTIX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "play",
		Short:         "Guess the hidden words of French rap lyrics, alone or with a teammate.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Play(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.server, "server", "s", "http://localhost:8080", "game server for team sessions (env: RAPANTIX_SERVER)")
	fs.StringVar(&cfg.similarityURL, "similarity-url", "", "similarity service, defaults to the game server relay (env: RAPANTIX_SIMILARITY_URL)")
	fs.IntVar(&cfg.topN, "topn", 15, "neighbours requested per guess (env: RAPANTIX_TOPN)")
	fs.StringVarP(&cfg.catalogPath, "catalog", "c", "data/songs.json", "songs file for random rounds (env: RAPANTIX_CATALOG)")
	fs.StringVar(&cfg.songFile, "song-file", "", "play this song instead of a random one (env: RAPANTIX_SONG_FILE)")
	fs.IntVar(&cfg.minStreams, "min-streams", 0, "popularity floor recorded on new team sessions (env: RAPANTIX_MIN_STREAMS)")
	fs.StringVar(&cfg.clientID, "client-id", "", "opaque player id, generated when empty (env: RAPANTIX_CLIENT_ID)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", 1500*time.Millisecond, "team session polling period (env: RAPANTIX_POLL_INTERVAL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log network activity to stderr (env: RAPANTIX_VERBOSE)")
	fs.BoolP("version", "V", false, "display version and exit (env: RAPANTIX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("rapantix play v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
