package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wrenchbid/internal/api"
	"wrenchbid/internal/config"
	"wrenchbid/internal/database"
	"wrenchbid/internal/domain"
	"wrenchbid/internal/events"
	"wrenchbid/internal/logging"
	"wrenchbid/internal/metrics"
	"wrenchbid/internal/notify"
	"wrenchbid/internal/repository"
	"wrenchbid/internal/service"
	"wrenchbid/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.New(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetrics(ctx, cfg, &logger)

	tracker := buildTracker(redisClient, &logger)
	bus := events.NewEventBus()
	wireEvents(bus, &logger)

	dispatcher := notify.NewDispatcher(db, notify.NewLogSink(&logger), redisClient, notify.RetryPolicy{
		MaxRetries:    cfg.Notifications.MaxRetries,
		InitialDelay:  time.Duration(cfg.Notifications.InitialDelay) * time.Second,
		MaxDelay:      time.Duration(cfg.Notifications.MaxDelay) * time.Second,
		BackoffFactor: cfg.Notifications.BackoffFactor,
	}, &logger)
	go dispatcher.Start(ctx)

	rfqSvc := service.NewRfqService(db, bus, dispatcher, cfg.Bidding.DefaultMaxBids, &logger)
	bidSvc := service.NewBidService(db, db, db, bus, dispatcher, &logger)
	resSvc := service.NewResolutionService(db, db, bus, dispatcher, cfg.Bidding.ReferralFeePercent, &logger)

	sweeper := worker.NewSweeper(rfqSvc, cfg.Bidding.SweepIntervalDuration(), &logger)
	go sweeper.Start(ctx)

	httpServer := api.NewHTTPServer(*cfg, rfqSvc, bidSvc, resSvc, tracker, &logger)
	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// buildTracker prefers redis-backed engagement state with an
// in-memory fallback so a redis outage degrades instead of failing.
func buildTracker(client *redis.Client, logger *zerolog.Logger) domain.EngagementTracker {
	memory := repository.NewMemoryEngagementStore()
	if client == nil {
		return memory
	}
	primary := repository.NewRedisEngagementStore(client, 24*time.Hour)
	return repository.NewFailoverEngagementStore(primary, memory, logger)
}

// wireEvents attaches the audit trail to the marketplace event bus.
// Every lifecycle event lands in the structured log with its payload.
func wireEvents(bus *events.EventBus, logger *zerolog.Logger) {
	auditHandler := func(ev *events.Event) error {
		logger.Info().
			Str("event", ev.Type).
			RawJSON("payload", ev.Payload).
			Msg("marketplace event")
		return nil
	}

	for _, eventType := range []string{
		events.EventRfqOpened,
		events.EventRfqCancelled,
		events.EventRfqExpired,
		events.EventBidSubmitted,
		events.EventBidAccepted,
		events.EventBidRejected,
	} {
		bus.Subscribe(eventType, auditHandler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
