// Command calorie-dashboard-api serves the calorie dashboard JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lg/calorie-dashboard-api/internal/ai"
	"lg/calorie-dashboard-api/internal/config"
	"lg/calorie-dashboard-api/internal/diet"
	"lg/calorie-dashboard-api/internal/logger"
	"lg/calorie-dashboard-api/internal/realtime"
	"lg/calorie-dashboard-api/internal/storage"
)

// newAIClient builds the estimation client for the configured provider.
func newAIClient(cfg *config.Config, log *zap.Logger) *ai.Client {
	opts := []ai.Option{
		ai.WithTimeout(cfg.AITimeout),
		ai.WithMaxAttempts(cfg.AIMaxAttempts),
		ai.WithLogger(log),
	}
	if cfg.AIProvider == "gemini" {
		return ai.NewGemini(cfg.GeminiKey, cfg.GeminiBaseURL, cfg.GeminiModel, opts...)
	}
	return ai.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, opts...)
}

// Run is the testable entrypoint for the application.
func Run(ctx context.Context) error {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()
	log.Info("starting calorie dashboard api",
		zap.String("storage", cfg.Storage),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("target_mode", cfg.TargetMode))

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	now := time.Now
	today := now().In(cfg.Location).Format(diet.DateLayout)
	repo, closeRepo, err := storage.Open(ctx, cfg, today, log)
	if err != nil {
		log.Error("unable to open storage", zap.Error(err))
		return err
	}
	defer closeRepo()

	aiClient := newAIClient(cfg, log)
	var calc diet.TargetCalculator = aiClient
	if cfg.TargetMode == "formula" {
		calc = diet.FormulaTarget{}
	}

	store := diet.NewStore(repo,
		diet.WithClock(now),
		diet.WithLocation(cfg.Location),
		diet.WithDefaultTarget(cfg.DefaultTarget),
		diet.WithLogger(log))

	hub := realtime.NewHub(log)
	defer hub.Close()

	if !cfg.AuthEnabled() {
		log.Warn("PASSWORD_HASH not set, API is unauthenticated")
	}

	h := &Handler{
		store:    store,
		settings: diet.NewSettingsResolver(repo, calc),
		ai:       aiClient,
		hub:      hub,
		log:      log,
		auth:     authConfig{passwordHash: []byte(cfg.PasswordHash), jwtSecret: []byte(cfg.JWTSecret)},
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h.newRouter(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
		return err
	}

	log.Info("shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctxShutdown)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
