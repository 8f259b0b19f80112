package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/KillerHyena/Inquiro/internal/dispatch"
	"github.com/KillerHyena/Inquiro/internal/feedback"
	"github.com/KillerHyena/Inquiro/internal/http/handlers"
	"github.com/KillerHyena/Inquiro/internal/http/httpapi"
	"github.com/KillerHyena/Inquiro/internal/infra"
	"github.com/KillerHyena/Inquiro/internal/infra/credentials"
	"github.com/KillerHyena/Inquiro/internal/infra/geoip"
	"github.com/KillerHyena/Inquiro/internal/middleware"
	"github.com/KillerHyena/Inquiro/internal/prompts"
	"github.com/KillerHyena/Inquiro/internal/providers/openai"
	"github.com/KillerHyena/Inquiro/internal/results"
	"github.com/KillerHyena/Inquiro/internal/sqlinline"
	"github.com/KillerHyena/Inquiro/internal/storage"
	"github.com/KillerHyena/Inquiro/internal/usage"
)

const sweepInterval = time.Minute

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api: exited with error")
	}
	logger.Info().Msg("api: stopped")
}

func run(ctx context.Context, cfg *infra.Config, logger infra.Logger) error {
	var sqlExec infra.SQLExecutor
	pool, err := infra.NewDBPool(ctx, cfg)
	switch {
	case errors.Is(err, infra.ErrDatabaseDisabled):
		logger.Info().Msg("api: DATABASE_URL not set, running without database")
	case err != nil:
		return err
	default:
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		sqlExec = runner
	}

	keys := cfg.OpenAIAPIKeys
	if len(keys) == 0 && sqlExec != nil {
		stored, err := credentials.NewStore(sqlExec).OpenAIAPIKeys(ctx)
		if err != nil {
			return fmt.Errorf("load stored api keys: %w", err)
		}
		keys = stored
	}
	rotator, err := dispatch.NewRotator(keys)
	if err != nil {
		return fmt.Errorf("set OPENAI_API_KEYS or store keys with cmd/apikey: %w", err)
	}

	model, reason := openai.NormalizeModel(cfg.OpenAIModel)
	if reason != "" {
		logger.Info().Str("requested", cfg.OpenAIModel).Str("model", model).Str("reason", reason).Msg("api: model normalized")
	}

	client := openai.NewClient(openai.Options{
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
		Logger:       &logger,
	})
	disp := dispatch.NewDispatcher(dispatch.Options{
		Queue: dispatch.NewQueue(cfg.QueueCapacity),
		Backoff: dispatch.NewBackoff(dispatch.BackoffConfig{
			Base:   cfg.BackoffBase,
			Max:    cfg.BackoffMax,
			Growth: cfg.BackoffGrowth,
		}),
		Rotator:        rotator,
		Generator:      client,
		Prompts:        prompts.Registry{},
		Model:          model,
		MaxInputLength: cfg.MaxInputLength,
		CallTimeout:    cfg.OpenAITimeout,
		Logger:         &logger,
	})

	store := results.NewStore(cfg.ResultTTL, logger)
	app := &handlers.App{
		Dispatcher: disp,
		Results:    store,
		Logger:     logger,
	}
	if sqlExec != nil {
		rec := usage.NewRecorder(sqlExec, logger)
		app.Sinks = append(app.Sinks, rec)
		app.Usage = rec
		app.Feedback = feedback.NewSQLRecorder(sqlExec, logger)
	} else {
		files, err := storage.NewFileStore(cfg.FeedbackDir)
		if err != nil {
			return err
		}
		app.Feedback = feedback.NewFileRecorder(files, cfg.FeedbackMaxFileBytes, logger)
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:            logger,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		RateLimitPerMin:   cfg.RateLimitPerMin,
		DefaultLocale:     prompts.DefaultTargetLanguage,
		CountryLookup:     lookup,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})
	server := infra.NewHTTPServer(cfg, router)

	logger.Info().
		Str("addr", server.Addr()).
		Int("credentials", rotator.Len()).
		Int("queue_capacity", disp.Capacity()).
		Str("model", model).
		Bool("database", sqlExec != nil).
		Msg("api: starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		if err := disp.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return store.Run(gctx, sweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api: http shutdown failed")
		}
		return nil
	})
	runErr := g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
	defer cancel()
	if err := disp.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("api: dispatcher drain incomplete")
	}
	return runErr
}
