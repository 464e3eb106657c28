package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feeddesk/feeddesk/app/api"
	"github.com/feeddesk/feeddesk/app/cfg"
	"github.com/feeddesk/feeddesk/app/config"
	"github.com/feeddesk/feeddesk/app/database"
	"github.com/feeddesk/feeddesk/app/feed"
	"github.com/feeddesk/feeddesk/app/notify"
	"github.com/feeddesk/feeddesk/app/scheduler"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully.
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting FeedDesk", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	entryRepo := database.NewEntryRepository(db)

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.FetchTimeout) * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}

	parser := feed.NewParser()
	fetcher := feed.NewFetcher(httpClient, parser, appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second)

	detector := scheduler.NewDetector(feedRepo, entryRepo, appCfg.EntryRetention)
	monitor := scheduler.NewMonitor(scheduler.PingProbe(appCfg.ProbeHost,
		time.Duration(appCfg.ProbeTimeout)*time.Second))
	notifier := notify.NewNotifier(appCfg.NotifyCommand, appCfg.NotifyIcon)
	eventLog := api.NewEventLog(100)

	poller := scheduler.NewPoller(feedRepo, entryRepo, fetcher, detector, monitor,
		scheduler.Fanout{eventLog}, notifier)
	poller.Start()
	defer poller.Stop()

	seedSubscriptions(appCfg.SubscriptionsDir, feedRepo, poller)

	apiHandler := api.NewHandler(feedRepo, entryRepo, poller, eventLog)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Control API listening", "port", appCfg.Port)
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

	// Poller and database are stopped via defer.
}

// seedSubscriptions reconciles the subscription seed files against the store:
// URLs not yet present are added through the normal first-fetch flow.
func seedSubscriptions(dir string, feedRepo database.FeedRepository, poller scheduler.PollerInterface) {
	loader := config.NewLoader(dir)
	subs, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load subscription seeds", "dir", dir, "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	added := 0
	for _, sub := range subs {
		existing, err := feedRepo.GetByURL(sub.URL)
		if err != nil {
			slog.Error("Failed to check subscription", "url", sub.URL, "error", err)
			continue
		}
		if existing != nil {
			continue
		}
		if !sub.IsActive() {
			slog.Debug("Skipping inactive subscription seed", "url", sub.URL)
			continue
		}

		if err := poller.AddFeed(sub.URL, sub.Category); err != nil {
			slog.Warn("Failed to dispatch subscription", "url", sub.URL, "error", err)
			continue
		}
		added++
	}

	slog.Info("Subscription seeds reconciled", "loaded", len(subs), "dispatched", added)
}
