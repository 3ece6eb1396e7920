package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"wardbook/internal/api"
	"wardbook/internal/clock"
	"wardbook/internal/config"
	"wardbook/internal/credentials"
	"wardbook/internal/database"
	"wardbook/internal/domain"
	"wardbook/internal/events"
	"wardbook/internal/logging"
	"wardbook/internal/metrics"
	"wardbook/internal/repository"
	"wardbook/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	clk, err := clock.New(cfg.App.Timezone)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateRepo := initStateRepository(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	metrics.Register()

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, &logger)

	bookingService := service.NewBookingService(db, clk, eventBus, &logger)
	commentService := service.NewCommentService(db, clk, eventBus, &logger)
	presenceTTL := time.Duration(cfg.Sessions.PresenceTTLMinutes) * time.Minute
	sessionService := service.NewSessionService(db, stateRepo, clk, &logger, presenceTTL)
	credManager := credentials.NewManager(db, clk, &logger)
	exportService := api.NewExportService(&logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, clk, &logger)
		go backupService.Run(ctx)
	}

	if cfg.Monitoring.PrometheusEnabled {
		go servePrometheus(cfg.Monitoring.PrometheusPort, &logger)
	}

	apiServer := api.NewHTTPServer(cfg.API, bookingService, commentService, sessionService, credManager, exportService, &logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error().Err(err).Msg("api server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return apiServer.Shutdown(shutdownCtx)
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." && cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error().Err(err).Msg("failed to create database directory")
			return err
		}
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create exports directory")
		return err
	}
	return nil
}

// initStateRepository wires the volatile presence/rate-limit store. With Redis
// enabled the repository fails over to memory when Redis goes away.
func initStateRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.StateRepository) {
	ttl := time.Duration(cfg.Sessions.PresenceTTLMinutes) * time.Minute
	memory := repository.NewMemoryStateRepository(ttl)

	if !cfg.Redis.Enabled {
		logger.Info().Msg("redis disabled, using in-memory state repository")
		return nil, memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable at startup, failover repository will retry")
	}

	primary := repository.NewRedisStateRepository(client, ttl)
	return client, repository.NewFailoverStateRepository(primary, memory, logger)
}

func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	logEvent := func(event *events.Event) error {
		logger.Info().
			Str("event_type", event.Type).
			RawJSON("payload", event.Payload).
			Msg("booking event")
		return nil
	}

	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingUpdated,
		events.EventStatusChanged,
		events.EventOutcomeChanged,
		events.EventBookingConfirmed,
		events.EventBookingRescheduled,
		events.EventBookingDeleted,
		events.EventCommentAdded,
	} {
		bus.Subscribe(eventType, logEvent)
	}
}

func servePrometheus(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("prometheus metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("prometheus server error")
	}
}
