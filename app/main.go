package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/ygg-feed/app/api"
	"github.com/lysyi3m/ygg-feed/app/cfg"
	"github.com/lysyi3m/ygg-feed/app/database"
	"github.com/lysyi3m/ygg-feed/app/feed"
	"github.com/lysyi3m/ygg-feed/app/logger"
	"github.com/lysyi3m/ygg-feed/app/poster"
	"github.com/lysyi3m/ygg-feed/app/tasks"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if config == nil {
		// help was requested
		return
	}

	logger.Setup(config.LogFile, config.LogMaxSizeMB, config.Debug)

	slog.Info("Starting ygg-feed", "version", config.Version)

	db, err := database.NewConnection(config.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", config.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", config.DBPath, "schema_version", version, "dirty", dirty)

	itemRepo := database.NewItemRepository(db)

	directory := feed.NewDirectory(feed.DirectoryConfig{
		BaseURL:     config.FeedBaseURL,
		Passkey:     config.Passkey,
		MoviesID:    config.MoviesFeedID,
		SeriesID:    config.SeriesFeedID,
		ShowsID:     config.ShowsFeedID,
		SpectacleID: config.SpectacleFeedID,
		AnimationID: config.AnimationFeedID,
		GamesID:     config.GamesFeedID,
	})
	if config.CategoriesFile != "" {
		if err := directory.LoadOverrides(config.CategoriesFile); err != nil {
			slog.Error("Failed to load categories file", "file", config.CategoriesFile, "error", err)
			os.Exit(1)
		}
	}

	var movies poster.MovieSource
	var tmdbClient *poster.TMDBClient
	if config.TMDBAPIKey != "" {
		tmdbClient = poster.NewTMDBClient(config.TMDBAPIKey)
		movies = tmdbClient
	} else {
		slog.Warn("TMDB API key not set, film and series posters disabled")
	}

	var games poster.GameSource
	if config.IGDBClientID != "" && config.IGDBClientSecret != "" {
		games = poster.NewIGDBClient(config.IGDBClientID, config.IGDBClientSecret)
	} else {
		slog.Warn("IGDB credentials not set, game covers disabled")
	}

	resolver := poster.NewResolver(poster.NewCache(), movies, games)

	syncer := tasks.NewSyncer(directory, feed.NewParser(), resolver, itemRepo,
		config.UserAgent, time.Duration(config.MaxAgeHours)*time.Hour)

	if config.SyncInterval > 0 {
		scheduler := tasks.NewScheduler(syncer, time.Duration(config.SyncInterval)*time.Minute)
		scheduler.Start()
		defer scheduler.Stop()
		slog.Info("Scheduler started", "interval_minutes", config.SyncInterval)
	} else {
		slog.Warn("Periodic sync disabled", "sync_interval", config.SyncInterval)
	}

	var details api.DetailsSource
	if tmdbClient != nil {
		details = tmdbClient
	}
	handler := api.NewHandler(itemRepo, details, config.LogFile, config.Version)
	server := api.NewServer(handler, config.PublicDir)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", config.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
