package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/flow-api/internal/clock"
	"github.com/jwalitptl/flow-api/internal/config"
	"github.com/jwalitptl/flow-api/internal/handler"
	analyticsHandler "github.com/jwalitptl/flow-api/internal/handler/analytics"
	appointmentHandler "github.com/jwalitptl/flow-api/internal/handler/appointment"
	clockHandler "github.com/jwalitptl/flow-api/internal/handler/clock"
	doctorHandler "github.com/jwalitptl/flow-api/internal/handler/doctor"
	notificationHandler "github.com/jwalitptl/flow-api/internal/handler/notification"
	predictionHandler "github.com/jwalitptl/flow-api/internal/handler/prediction"
	scheduleHandler "github.com/jwalitptl/flow-api/internal/handler/schedule"
	"github.com/jwalitptl/flow-api/internal/middleware"
	"github.com/jwalitptl/flow-api/internal/repository/postgres"
	"github.com/jwalitptl/flow-api/internal/router"
	analyticsService "github.com/jwalitptl/flow-api/internal/service/analytics"
	appointmentService "github.com/jwalitptl/flow-api/internal/service/appointment"
	doctorService "github.com/jwalitptl/flow-api/internal/service/doctor"
	eventService "github.com/jwalitptl/flow-api/internal/service/event"
	notificationService "github.com/jwalitptl/flow-api/internal/service/notification"
	predictionService "github.com/jwalitptl/flow-api/internal/service/prediction"
	scheduleService "github.com/jwalitptl/flow-api/internal/service/schedule"
	triageService "github.com/jwalitptl/flow-api/internal/service/triage"
	"github.com/jwalitptl/flow-api/internal/worker"
	"github.com/jwalitptl/flow-api/pkg/auth"
	"github.com/jwalitptl/flow-api/pkg/logger"
	"github.com/jwalitptl/flow-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	baseRepo := postgres.NewBaseRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(baseRepo)
	doctorRepo := postgres.NewDoctorRepository(baseRepo)
	modelRepo := postgres.NewModelRepository(baseRepo)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)

	clk := clock.New(clockStart(cfg.Clock))

	events := eventService.NewService(outboxRepo, appLogger)
	predictions := predictionService.NewService(
		appointmentRepo,
		doctorRepo,
		modelRepo,
		events,
		clk,
		cfg.Model,
		appLogger,
		metrics.NewMetrics("flow", "prediction"),
	)
	if err := predictions.Restore(context.Background()); err != nil {
		appLogger.Error(err, "failed to restore model snapshot")
	}

	schedules := scheduleService.NewService(appointmentRepo, doctorRepo, appLogger)
	triage := triageService.NewService(appointmentRepo, doctorRepo, clk, appLogger)
	appointments := appointmentService.NewService(appointmentRepo, doctorRepo, events, clk, appLogger)
	doctors := doctorService.NewService(doctorRepo, appointmentRepo, appLogger)
	analytics := analyticsService.NewService(appointmentRepo, doctorRepo, predictions, clk, appLogger)
	notifications := notificationService.NewService(appointmentRepo, doctorRepo, predictions, events, clk, appLogger)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	authMW := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMW,
		predictionHandler.NewHandler(predictions, clk),
		scheduleHandler.NewHandler(schedules, clk),
		appointmentHandler.NewHandler(appointments, triage),
		doctorHandler.NewHandler(doctors, clk),
		analyticsHandler.NewHandler(analytics, clk),
		notificationHandler.NewHandler(notifications, clk),
		clockHandler.NewHandler(clk),
		handler.NewHandler(db),
		appLogger,
		router.RouterConfig{
			RateLimit:     100,
			RateBurst:     200,
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "flow_api",
		},
	)
	r.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := worker.NewSweeper(appointmentRepo, clk, time.Duration(cfg.Worker.SweepIntervalSeconds)*time.Second, appLogger)
	go sweeper.Start(ctx)

	retrainer := worker.NewRetrainer(predictions, time.Duration(cfg.Worker.RetrainIntervalMinutes)*time.Minute, appLogger)
	go retrainer.Start(ctx)

	cleanup := worker.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.RetentionDays, time.Hour, appLogger)
	go cleanup.Start(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited")
}

// clockStart resolves the simulated clock's boot time. Deployments replaying
// a historical day set clock.start_time; everyone else boots on wall time.
func clockStart(cfg config.ClockConfig) time.Time {
	if cfg.StartTime == "" {
		return time.Now()
	}
	t, err := time.Parse(time.RFC3339, cfg.StartTime)
	if err != nil {
		log.Warn().Err(err).Str("start_time", cfg.StartTime).Msg("invalid clock start time, using wall clock")
		return time.Now()
	}
	return t
}
