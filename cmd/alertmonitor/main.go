// Command alertmonitor polls stored price alerts and notifies their owners.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finzora/api/alerts"
	"finzora/api/app"
	"finzora/api/config"
	"finzora/api/logger"
	"finzora/api/store"

	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "run a single check and exit")
	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: .env file not found")
	}
	cfg := config.Load()

	if err := logger.Init("finzora-alertmonitor", cfg.Development(), logger.ParseLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenBackend(cfg)
	if err != nil {
		logger.Get().Fatal("failed to open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		backend.Close(closeCtx)
	}()

	notifier, closeNotifier, err := app.NewNotifier(cfg)
	if err != nil {
		logger.Get().Fatal("failed to create notifier", zap.Error(err))
	}
	defer closeNotifier()

	checker := alerts.NewChecker(store.New(backend), app.NewQuoteChain(cfg), notifier)
	if *once {
		sum, err := checker.RunOnce(ctx)
		if err != nil {
			logger.Get().Error("alert check failed", zap.Error(err))
			return
		}
		logger.Get().Info("alert check finished",
			zap.Int("users", sum.Users),
			zap.Int("checked", sum.Checked),
			zap.Int("triggered", sum.Triggered))
		return
	}
	checker.Run(ctx, cfg.AlertPollInterval)
}
