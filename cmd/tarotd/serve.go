package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/randomtoy/tarot-spread/internal/adapters/decks"
	httpadapter "github.com/randomtoy/tarot-spread/internal/adapters/http"
	"github.com/randomtoy/tarot-spread/internal/adapters/llm/openrouter"
	"github.com/randomtoy/tarot-spread/internal/adapters/token"
	"github.com/randomtoy/tarot-spread/internal/app"
	"github.com/randomtoy/tarot-spread/internal/config"
	"github.com/randomtoy/tarot-spread/internal/logging"
	"github.com/randomtoy/tarot-spread/internal/ports"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Run the HTTP API. Settings come from the environment and an optional .env file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logFile := logging.New(cfg)
	defer logFile.Close()
	slog.SetDefault(logger)

	deckStore, err := loadDecks(cfg.CardsFile)
	if err != nil {
		return err
	}
	if _, err := deckStore.GetDeck(ctx, cfg.DefaultDeck); err != nil {
		return fmt.Errorf("default deck %q: %w", cfg.DefaultDeck, err)
	}

	secret := cfg.TokenSecret
	if secret == "" {
		secret = token.RandomSecret()
		logger.Warn("TOKEN_SECRET not set, share tokens will not survive a restart")
	}
	signer := token.NewSigner(secret, cfg.TokenIssuer, cfg.TokenTTL)

	var interpreter ports.Interpreter
	if cfg.InterpretEnabled() {
		interpreter = openrouter.NewClient(
			&http.Client{Timeout: cfg.LLMTimeout},
			cfg.OpenRouterAPIKey,
			cfg.OpenRouterBaseURL,
			cfg.LLMModel,
			cfg.LLMFallbackModels,
			logger,
		)
	}

	svc := app.NewSpreadService(deckStore, interpreter, signer, stdRNG{}, cfg.LLMModel)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(httpadapter.CORSMiddleware(cfg.CORSOrigins))
	e.Use(httpadapter.RequestIDMiddleware())
	e.Use(httpadapter.LoggingMiddleware(logger))

	httpadapter.NewHandler(svc, cfg.DefaultDeck, cfg.PublicBaseURL, cfg.CORSOrigins).Register(e)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTPAddr,
			"deck", cfg.DefaultDeck,
			"interpret", svc.InterpretEnabled(),
		)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadDecks(cardsFile string) (*decks.EmbeddedStore, error) {
	var opts []decks.Option
	if cardsFile != "" {
		opts = append(opts, decks.WithFile(decks.CustomDeckID, cardsFile))
	}
	store := decks.NewEmbeddedStore(opts...)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load decks: %w", err)
	}
	return store, nil
}
