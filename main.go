package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-hand/config"
	"content-hand/notify"
	"content-hand/providers/automation"
	"content-hand/services"
	"content-hand/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var syncedTopicsCounter prometheus.Counter

func init() {
	syncedTopicsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "content_topics_synced_total",
			Help: "Total number of topic records loaded by scheduled syncs.",
		},
	)
	prometheus.MustRegister(syncedTopicsCounter)
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal("Invalid configuration", zap.Error(err))
	}

	settings, err := config.LoadSettings(cfg.SettingsPath, cfg.WebhookDefaults())
	if err != nil {
		logging.Fatal("Settings load error", zap.Error(err))
	}

	// Setup Store
	store, err := storage.New(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to set up remote store", zap.Error(err))
	}
	logging.Info("Remote store ready.", zap.String("store", store.Name()))

	// Setup Services
	webhooks := automation.NewClient(cfg, settings, logging)
	normalizer := services.NewNormalizer()
	topics := services.NewTopicCollection(store, normalizer, logging)
	syncer := services.NewSyncer(store, webhooks.Legacy(), topics, logging)
	notifier := notify.NewSlackNotifier(cfg.SlackToken, cfg.SlackChannel, logging)
	dashboard := services.NewDashboard(topics, settings, webhooks, syncer, notifier, normalizer, logging)

	initCtx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	dashboard.Init(initCtx)
	cancel()

	router := newRouter(cfg, dashboard, logging)

	// Setup Cron
	cronScheduler := cron.New()
	_, err = cronScheduler.AddFunc(cfg.SyncSchedule, func() {
		logging.Info("Running scheduled sync...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		defer cancel()
		count := dashboard.Sync(ctx)
		syncedTopicsCounter.Add(float64(count))
	})
	if err != nil {
		logging.Fatal("Invalid sync schedule", zap.String("schedule", cfg.SyncSchedule), zap.Error(err))
	}
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.WebhookTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("Shutting down...")
	<-cronScheduler.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", zap.Error(err))
	}
	dashboard.Wait()
}
