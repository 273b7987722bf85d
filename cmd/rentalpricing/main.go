// Package main запускает HTTP-сервер сервиса бронирований.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/rental-pricing/internal/config"
	"github.com/mmeshcher/rental-pricing/internal/events"
	"github.com/mmeshcher/rental-pricing/internal/handler"
	"github.com/mmeshcher/rental-pricing/internal/middleware"
	"github.com/mmeshcher/rental-pricing/internal/pricing"
	"github.com/mmeshcher/rental-pricing/internal/quotes"
	"github.com/mmeshcher/rental-pricing/internal/relay"
	"github.com/mmeshcher/rental-pricing/internal/repository"
	"github.com/mmeshcher/rental-pricing/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	payoutRules, err := cfg.PayoutRules()
	if err != nil {
		sugar.Fatalw("payout rules error", "error", err.Error())
	}

	engine, err := pricing.NewEngine(cfg.FeeRates(), payoutRules)
	if err != nil {
		sugar.Fatalw("pricing engine error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var quoteStore service.QuoteStore
	if cfg.RedisAddr != "" {
		client, err := quotes.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			sugar.Fatalw("redis initialization error", "error", err.Error())
		}
		defer client.Close()
		quoteStore = quotes.NewRedisStore(client, time.Now)
	} else {
		sugar.Warn("REDIS_ADDR is not set, quotes are kept in memory")
		quoteStore = quotes.NewMemoryStore(time.Now)
	}

	var publisher events.Publisher
	if cfg.RabbitMQURL != "" {
		rp, err := events.NewRabbitPublisher(cfg.RabbitMQURL)
		if err != nil {
			sugar.Fatalw("rabbitmq initialization error", "error", err.Error())
		}
		publisher = rp
	} else {
		publisher = events.NewLogPublisher(logger)
	}
	defer publisher.Close()

	opts := service.Options{
		Publisher: publisher,
		Logger:    logger,
		QuoteTTL:  cfg.QuoteTTL,
	}
	if cfg.RelayAddress != "" {
		opts.Notifier = relay.NewClient(cfg.RelayAddress)
	}

	svc := service.NewService(repo, quoteStore, engine, opts)
	defer svc.Close()

	if cfg.AuthSecret == "" {
		sugar.Warn("AUTH_SECRET is not set, tokens from the auth service will be rejected")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter(cfg.CORSOrigins...)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting rental pricing server",
			"addr", cfg.RunAddress,
			"timezone", cfg.PlatformTimezone,
			"releaseHour", payoutRules.ReleaseHour,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
