package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/flow-api/internal/config"
	"github.com/jwalitptl/flow-api/internal/repository/postgres"
	"github.com/jwalitptl/flow-api/pkg/logger"
	"github.com/jwalitptl/flow-api/pkg/messaging/redis"
	"github.com/jwalitptl/flow-api/pkg/metrics"
	"github.com/jwalitptl/flow-api/pkg/worker"
)

// overrides are environment knobs specific to the worker binary. They layer
// on top of the shared file config so one artifact can run differently tuned
// workers side by side.
type overrides struct {
	Channel      string        `envconfig:"CHANNEL"`
	BatchSize    int           `envconfig:"BATCH_SIZE"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL"`
	HealthAddr   string        `envconfig:"HEALTH_ADDR" default:":8081"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var ov overrides
	if err := envconfig.Process("flow_worker", &ov); err != nil {
		log.Fatal().Err(err).Msg("failed to parse worker environment")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLogger := logger.FromZerolog(log.Logger)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.ToBrokerConfig(), &log.Logger)
	if err != nil {
		appLogger.Fatal(err, "failed to create redis broker")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	workerCfg := cfg.Outbox.ToWorkerConfig()
	if ov.Channel != "" {
		workerCfg.Channel = ov.Channel
	}
	if ov.BatchSize > 0 {
		workerCfg.BatchSize = ov.BatchSize
	}
	if ov.PollInterval > 0 {
		workerCfg.PollInterval = ov.PollInterval
	}

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		workerCfg,
		appLogger,
		metrics.New("outbox_processor"),
	)

	setupHealthCheck(ov.HealthAddr, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("shutting down")
		cancel()
	}()

	processor.Start(ctx)
}

func setupHealthCheck(addr string, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			appLogger.Fatal(err, "health check server failed")
		}
	}()
}
