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

	"finzora/api/app"
	"finzora/api/auth"
	"finzora/api/config"
	"finzora/api/crypto"
	"finzora/api/email"
	"finzora/api/handlers"
	"finzora/api/kafka"
	"finzora/api/logger"
	"finzora/api/middleware"
	"finzora/api/sse"
	"finzora/api/store"
	"finzora/api/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: .env file not found")
	}
	cfg := config.Load()

	if err := logger.Init("finzora-api", cfg.Development(), logger.ParseLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.OpenBackend(cfg)
	if err != nil {
		logger.Get().Fatal("failed to open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	st := store.New(backend)

	var sender email.Sender = email.LogSender{}
	if cfg.SMTPConfigured() {
		sender = email.NewSMTPSender(cfg.SMTPServer, cfg.SMTPPort, cfg.EmailSender, cfg.EmailPassword)
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.DefaultUserID)

	hub := sse.NewHub()
	var pool *worker.WorkerPool
	if kcfg := app.KafkaConfig(cfg); kcfg.Enabled() {
		pool = worker.NewWorkerPool(cfg.NotifyWorkers, hub)
		pool.Start()
		if err := kafka.StartConsumer(ctx, kcfg, pool); err != nil {
			logger.Get().Warn("live alert delivery disabled", zap.Error(err))
		}
	}

	h := &handlers.Handler{
		Store:       st,
		Categorizer: app.NewCategorizer(cfg),
		Stocks:      app.NewQuoteChain(cfg),
		Crypto:      crypto.NewClient(cfg.CryptoAPIBaseURL, cfg.CryptoCurrency),
		Advisor:     app.NewAdvisor(cfg),
		Scanner:     app.NewScanner(cfg),
		Auth:        auth.NewService(st, sender, tokens),
		Hub:         hub,
		Pool:        pool,
	}
	router := handlers.NewRouter(h, handlers.RouterOptions{
		CORSOrigin:  cfg.CORSOrigin,
		Auth:        middleware.Auth(tokens, cfg.RequireAuth, cfg.DefaultUserID),
		OTPLimiter:  middleware.NewIPRateLimiter(cfg.OTPRateLimit).Middleware(),
		InternalKey: middleware.InternalKey(cfg.InternalKey),
		RequestLog:  cfg.Development(),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		logger.Get().Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("storage", backend.Name()),
			zap.Bool("require_auth", cfg.RequireAuth))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Get().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Get().Error("server shutdown failed", zap.Error(err))
	}
	if pool != nil {
		pool.Stop()
	}
	if err := backend.Close(shutdownCtx); err != nil {
		logger.Get().Error("failed to close storage", zap.Error(err))
	}
}
