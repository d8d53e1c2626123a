// Command poller is graphsentry's environment-driven entry point: it wires
// the config store, upstream log clients, alert state, sink, and notifier
// into an orchestrator, then drives it on a fixed schedule.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"graphsentry/internal/alertstate"
	"graphsentry/internal/bus"
	"graphsentry/internal/config"
	"graphsentry/internal/configstore"
	"graphsentry/internal/crypto"
	"graphsentry/internal/logclient"
	"graphsentry/internal/metrics"
	"graphsentry/internal/notifier"
	"graphsentry/internal/orchestrator"
	"graphsentry/internal/rules"
	"graphsentry/internal/scheduler"
	"graphsentry/internal/sink"
)

const graphBaseURL = "https://graph.microsoft.com"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadPoller()
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

	redisClient, err := alertstate.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := bus.NewPublisher(cfg.NATSURL)
	if err != nil {
		logger.Error("failed to connect to nats", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer publisher.Close()

	subscriber, err := bus.NewSubscriber(cfg.NATSURL)
	if err != nil {
		logger.Error("failed to connect to nats subscriber", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer subscriber.Close()

	catalogSource := rules.Source(rules.DBSource{Pool: store.Pool})
	if cfg.RuleCatalogPath != "" {
		catalogSource = rules.DirSource{Root: cfg.RuleCatalogPath}
	}
	loader := rules.New(catalogSource, logger)

	minter := logclient.NewClientCredentialsMinter(
		"https://login.microsoftonline.com/%s/oauth2/v2.0/token",
		cfg.GraphClientID, cfg.GraphClientSecret,
		"https://graph.microsoft.com/.default", 15*time.Second)
	if cfg.EncryptionKey != "" {
		enc, err := crypto.NewAesGcmEncryptor([]byte(cfg.EncryptionKey))
		if err != nil {
			logger.Error("invalid encryption key", slog.String("error", err.Error()))
			os.Exit(1)
		}
		minter.SetSecretResolver(tenantSecretResolver{store: store, dec: enc})
	}
	credentials := logclient.NewCredentialCache(minter)

	factory := logclient.NewFactory(
		logclient.NewSignInClient(graphBaseURL, credentials, 30*time.Second),
		logclient.NewSecurityAlertClient(graphBaseURL, credentials, 30*time.Second),
		logclient.NewAuditLogClient(graphBaseURL, credentials, 30*time.Second),
	)

	alertStore := alertstate.New(alertstate.NewRedisKV(redisClient), logger)
	uploader := sink.NewHTTPUploader(cfg.SinkEndpointURL, 30*time.Second)
	notify := notifier.New(10*time.Second, logger)
	collector := metrics.NewCollector(redisClient)
	collector.Start(ctx)
	defer collector.Stop()

	orch := orchestrator.New(orchestrator.Dependencies{
		Tenants:        store,
		Rules:          loader,
		Clients:        factory,
		AlertState:     alertStore,
		Sink:           uploader,
		Notify:         notify,
		Logger:         logger,
		SinkRuleID:     cfg.SinkRuleID,
		SinkStreamName: cfg.SinkStreamName,
	})

	runner := scheduler.RunFunc(func(ctx context.Context, now time.Time) (any, error) {
		result, err := orch.Run(ctx, now)
		if err == nil {
			collector.AddEventsProcessed(result.Summary.EventsProcessed)
			for range result.Alerts {
				collector.IncAlertsEmitted()
			}
		}
		return result, err
	})
	sched := scheduler.New(cfg.PollInterval, runner, logger)

	reload := func(subject string) {
		_, _ = subscriber.Subscribe(subject, func(evt bus.RuleEvent) {
			logger.Info("received catalog reload notification", slog.String("ruleId", evt.RuleID), slog.String("subject", subject))
		})
	}
	reload(bus.SubjectRuleCreated)
	reload(bus.SubjectRuleUpdated)

	schedCtx, cancelSched := context.WithCancel(ctx)
	go sched.Start(schedCtx)
	defer sched.Stop()

	go startAdminServer(cfg.AdminPort, store, sched, collector, logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	cancelSched()
}

// tenantSecretResolver decrypts a tenant's stored client secret on demand,
// letting the credential minter override its static secret per tenant.
type tenantSecretResolver struct {
	store *configstore.Store
	dec   crypto.Encryptor
}

func (r tenantSecretResolver) TenantSecret(ctx context.Context, tenantID string) (string, bool, error) {
	cipherText, err := r.store.GetTenantSecret(ctx, tenantID)
	if err == configstore.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if cipherText == "" {
		return "", false, nil
	}
	plain, err := r.dec.Decrypt(cipherText)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

func startAdminServer(port string, store *configstore.Store, sched *scheduler.Scheduler, collector *metrics.Collector, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "tickOverdue": sched.Overdue()})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(collector.Snapshot())
	})

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	logger.Info("poller admin server listening", slog.String("port", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("admin server error", slog.String("error", err.Error()))
	}
}
