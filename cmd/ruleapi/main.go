// Command ruleapi serves the chi-routed admin/rule API backing the operator
// web UI: tenant status, rule bookkeeping, alert-delivery config, and run
// history, all read from the config store.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"graphsentry/internal/adminapi"
	"graphsentry/internal/alertstate"
	"graphsentry/internal/bus"
	"graphsentry/internal/config"
	"graphsentry/internal/configstore"
	"graphsentry/internal/crypto"
	"graphsentry/internal/metrics"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadRuleAPI()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := configstore.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to config store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	publisher, err := bus.NewPublisher(cfg.NATSURL)
	if err != nil {
		logger.Error("failed to connect to nats", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer publisher.Close()

	enc, err := crypto.NewAesGcmEncryptor([]byte(cfg.EncryptionKey))
	if err != nil {
		logger.Error("invalid encryption key", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var metricsReader *metrics.Reader
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient, err := alertstate.ConnectRedis(ctx, redisAddr)
		if err != nil {
			logger.Warn("metrics disabled, redis unreachable", slog.String("error", err.Error()))
		} else {
			defer redisClient.Close()
			metricsReader = metrics.NewReader(redisClient)
		}
	}

	handler := &adminapi.Handler{
		Store:     store,
		Bus:       publisher,
		Metrics:   metricsReader,
		Encryptor: enc,
		Timeout:   5 * time.Second,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	handler.RegisterRoutes(r)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		logger.Info("rule api listening", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
