package main

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"rapantix/internal/catalog"
	"rapantix/internal/config"
	"rapantix/internal/match"
	"rapantix/internal/session"
)

// NamedScorer is a similarity model that can report which backend it is.
type NamedScorer interface {
	match.Scorer
	Name() string
}

// App holds the server's shared state.
type App struct {
	IsProduction   bool
	CookieMaxAge   time.Duration
	SessionTimeout time.Duration
	RateLimitRPS   int
	RateLimitBurst int
	StartTime      time.Time

	SessionMutex sync.RWMutex
	SoloRounds   map[string]*SoloRound

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex

	Teams   *session.Store
	Catalog *catalog.Catalog
	Scorer  NamedScorer
	Engine  *match.Engine
}

// newApp wires the stores and the match engine. cat and scorer may be nil.
func newApp(cfg *config.Config, cat *catalog.Catalog, scorer NamedScorer) *App {
	return &App{
		IsProduction:   cfg.IsProduction(),
		CookieMaxAge:   cfg.Session.CookieMaxAge,
		SessionTimeout: cfg.Session.Timeout,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		StartTime:      time.Now(),
		SoloRounds:     make(map[string]*SoloRound),
		LimiterMap:     make(map[string]*rate.Limiter),
		Teams:          session.NewStore(cfg.Session.TeamTTL),
		Catalog:        cat,
		Scorer:         scorer,
		Engine:         match.NewEngine(scorer, cfg.Similarity.TopN, slog.Default()),
	}
}

func (app *App) scorerName() string {
	if app.Scorer == nil {
		return "none"
	}
	return app.Scorer.Name()
}
