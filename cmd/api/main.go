package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"videofactory/internal/domain"
	"videofactory/internal/http/handlers"
	httpapi "videofactory/internal/http/httpapi"
	"videofactory/internal/infra"
	"videofactory/internal/pipeline"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "api").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One stack per process: every request shares the credential cursors.
	stack, err := pipeline.Open(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: setup failed")
	}
	defer stack.Close()
	if err := stack.RequireGemini(); err != nil {
		logger.Warn().Err(err).Msg("api: acquisitions will be refused until a key is configured")
	}

	var runs domain.RunRepository
	if stack.Runs != nil {
		runs = stack.Runs
	}
	app := handlers.NewApp(stack, runs, stack.Metrics, &logger)
	if stack.Cache != nil {
		app.Cache = stack.Cache
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, cfg, logger))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
