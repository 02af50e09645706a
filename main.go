package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"rapantix/internal/catalog"
	"rapantix/internal/config"
	"rapantix/internal/similarity"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logFatal("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logInfo("Starting Rapantix in %s mode", map[bool]string{true: "production", false: "development"}[cfg.IsProduction()])

	cat, err := catalog.Load(cfg.Catalog.Path, slog.Default())
	if err != nil {
		logWarn("Failed to load song catalog: %v, solo rounds need a posted song", err)
	} else {
		logInfo("Loaded %d songs from %s", cat.Len(), cfg.Catalog.Path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scorer := buildScorer(ctx, cfg)
	app := newApp(cfg, cat, scorer)
	logInfo("Similarity backend: %s", app.scorerName())

	app.startSweeper(ctx, cfg.Session.SweepInterval)

	startServer(ctx, app.setupRouter(), cfg.Server.Port)
}

// buildScorer prefers the word-vector service and falls back to Gemini.
func buildScorer(ctx context.Context, cfg *config.Config) NamedScorer {
	if cfg.Similarity.URL != "" {
		return similarity.NewHTTPScorer(cfg.Similarity.URL, cfg.Similarity.Timeout, slog.Default())
	}
	if cfg.Gemini.Enabled() {
		scorer, err := similarity.NewGeminiScorer(ctx, similarity.GeminiConfig{
			APIKey:  cfg.Gemini.APIKey,
			Project: cfg.Gemini.Project,
			Region:  cfg.Gemini.Region,
			Model:   cfg.Gemini.Model,
		}, slog.Default())
		if err != nil {
			logWarn("Failed to create Gemini scorer: %v", err)
			return nil
		}
		return scorer
	}
	logWarn("No similarity backend configured, guesses get spelling hints only")
	return nil
}

func (app *App) setupRouter() *gin.Engine {
	router := gin.Default()

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(requestIDMiddleware(), noStoreMiddleware())

	limited := app.rateLimitMiddleware()

	router.POST(RouteTeamCreate, limited, app.teamCreateHandler)
	router.POST(RouteTeamJoin, limited, app.teamJoinHandler)
	router.POST(RouteTeamGuess, limited, app.teamGuessHandler)
	router.POST(RouteTeamTitle, limited, app.teamTitleHandler)
	router.GET(RouteTeamState, app.teamStateHandler)

	router.POST(RouteSoloNew, limited, app.soloNewHandler)
	router.POST(RouteSoloGuess, limited, app.soloGuessHandler)
	router.POST(RouteSoloTitle, limited, app.soloTitleHandler)
	router.GET(RouteSoloState, app.soloStateHandler)
	router.POST(RouteSoloRetry, limited, app.soloRetryHandler)

	router.POST(RouteSimilar, limited, app.similarHandler)
	router.GET(RouteHealthz, app.healthzHandler)

	return router
}

func startServer(ctx context.Context, router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		logInfo("Shutdown signal received, shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}
