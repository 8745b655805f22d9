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

	"github.com/lalith-99/seniorbuddy/internal/api"
	"github.com/lalith-99/seniorbuddy/internal/catalog"
	"github.com/lalith-99/seniorbuddy/internal/config"
	"github.com/lalith-99/seniorbuddy/internal/observ"
	"github.com/rs/cors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var catalogPath string
	var migrate bool

	flagSet := pflag.NewFlagSet("seniorbuddy", pflag.ContinueOnError)
	flagSet.StringVar(&catalogPath, "catalog", "", "path to a services YAML file (default: built-in catalog)")
	flagSet.BoolVar(&migrate, "migrate", true, "apply the embedded schema at startup")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// ---------------------------------------------------------------
	// 3. Connect the backend, or build every component disabled
	//
	// Startup has no deadline of its own; signals cancel it.
	// ---------------------------------------------------------------
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var deps *backendDeps
	if cfg.BackendEnabled() {
		deps, err = connectBackend(ctx, cfg, migrate, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("backend disabled, missing configuration",
			zap.Strings("missing", cfg.Missing),
		)
		deps = disabledBackend(logger)
	}
	defer deps.Close()

	// ---------------------------------------------------------------
	// 4. HTTP server
	// ---------------------------------------------------------------
	router := api.NewRouter(newHandlers(cfg, deps, cat, logger), deps.sessions, cfg.BackendEnabled(), logger)

	handler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting SeniorBuddy",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.Bool("backend_enabled", cfg.BackendEnabled()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
