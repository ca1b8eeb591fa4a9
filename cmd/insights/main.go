package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"spese-insights/internal/auth"
	"spese-insights/internal/backend"
	"spese-insights/internal/cli"
	"spese-insights/internal/config"
	apphttp "spese-insights/internal/http"
	"spese-insights/internal/log"
	"spese-insights/internal/services"
)

func main() {
	cfg, cfgErr := cli.LoadConfig((*config.Config).ValidateServer)
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	if cfgErr != nil {
		cli.Fatal(logger, "Configuration validation failed", cfgErr)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", backendCfg.Type)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	gen, err := backend.NewGenerator(cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize insights generator", err)
	}

	svc := services.NewInsightService(store.Store, gen, logger)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Insights:     svc,
		Verifier:     auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer),
		Pinger:       store.Store,
		Generator:    gen,
		Logger:       logger,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting insights server",
			"port", cfg.Port,
			"backend", backendCfg.Type,
			log.FieldProvider, gen.Provider())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		}
		return
	case <-ctx.Done():
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
