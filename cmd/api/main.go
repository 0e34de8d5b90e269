package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"homestage/internal/artifact"
	"homestage/internal/http/handlers"
	"homestage/internal/http/httpapi"
	"homestage/internal/infra"
	"homestage/internal/infra/geoip"
	"homestage/internal/middleware"
	"homestage/internal/providers/fal"
	"homestage/internal/providers/openrouter"
)

func main() {
	_ = godotenv.Load(".env", ".env.local")

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if dbpool != nil {
		defer dbpool.Close()
	} else {
		logger.Warn().Msg("no DATABASE_URL, generation history disabled")
	}

	// Object store: hosted bucket when configured, local filesystem for
	// development, otherwise persistence is disabled entirely.
	var objects artifact.ObjectStore
	staticDir := ""
	switch {
	case cfg.StorageConfigured():
		objects = artifact.NewBucket(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket, nil)
	case cfg.StoragePath != "":
		fileStore, err := artifact.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init file store")
		}
		objects = fileStore
		staticDir = fileStore.BasePath()
	default:
		logger.Warn().Msg("no object storage configured, uploads disabled")
	}

	var sqlExec infra.SQLExecutor
	if dbpool != nil {
		sqlExec = dbpool
	}
	artifacts := artifact.New(objects, sqlExec, logger)

	falClient := fal.NewClient(fal.Options{
		APIKey:      cfg.FalAPIKey,
		BaseURL:     cfg.FalBaseURL,
		Logger:      &logger,
		CallTimeout: cfg.UpstreamTimeout,
	})
	classifier := openrouter.NewClient(openrouter.Options{
		APIKey:      cfg.OpenRouterAPIKey,
		BaseURL:     cfg.OpenRouterBaseURL,
		Model:       cfg.OpenRouterModel,
		Referer:     cfg.OpenRouterReferer,
		Title:       cfg.OpenRouterTitle,
		Logger:      &logger,
		CallTimeout: cfg.UpstreamTimeout,
	})

	var country middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		country = resolver.CountryCode
	}

	app := handlers.NewApp(logger, falClient, falClient, classifier, artifacts)
	router := httpapi.NewRouter(app, cfg, logger, country, staticDir)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
