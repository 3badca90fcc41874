// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/javajoker/firenoc-backend/internal/config"
	"github.com/javajoker/firenoc-backend/internal/database"
	"github.com/javajoker/firenoc-backend/internal/logging"
	"github.com/javajoker/firenoc-backend/internal/metrics"
	"github.com/javajoker/firenoc-backend/internal/notify"
	"github.com/javajoker/firenoc-backend/internal/platform/redis"
	"github.com/javajoker/firenoc-backend/internal/router"
	"github.com/javajoker/firenoc-backend/internal/scheduler"
	"github.com/javajoker/firenoc-backend/internal/services"
	"github.com/javajoker/firenoc-backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("Server exited with error")
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Configure(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if cfg.Database.SeedData {
		if err := database.SeedInitialData(db); err != nil {
			return fmt.Errorf("seed data: %w", err)
		}
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	kafkaClient, err := notify.NewKafkaClient(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	gormStore := store.NewGormStore(db)
	var sequencer store.Sequencer = gormStore
	if cfg.Notification.SequenceBackend == "redis" {
		if redisClient == nil {
			return errors.New("redis sequence backend requires REDIS_URL")
		}
		sequencer = store.NewRedisSequencer(redisClient.Client, "firenoc:seq:")
	}

	// Notification channels
	hub := notify.NewHub(cfg.Server.AllowedOrigins)
	inbox := notify.NewInAppDispatcher(db)
	channels := []notify.Channel{{Name: "push", Dispatcher: hub}}
	if cfg.Notification.InAppEnabled {
		channels = append(channels, notify.Channel{Name: "in_app", Dispatcher: inbox})
	}
	if cfg.Notification.EmailEnabled {
		channels = append(channels, notify.Channel{Name: "email", Dispatcher: notify.NewMailDispatcher(cfg.Email, gormStore)})
	}
	if kafkaClient != nil {
		channels = append(channels, notify.Channel{Name: "kafka", Dispatcher: notify.NewKafkaDispatcher(kafkaClient, cfg.Kafka.Topic)})
	}
	dispatcher := notify.NewMulti(channels...).OnFailure(m.IncDispatchFailure)

	realClock := clock.RealClock{}
	deps := services.Deps{
		Store:     gormStore,
		Sequencer: sequencer,
		Notifier:  services.NewNotificationService(dispatcher, cfg.Notification.Timeout),
		Clock:     realClock,
		Workflow:  cfg.Workflow,
		Metrics:   m,
	}

	var locker scheduler.Locker
	if redisClient != nil {
		locker = scheduler.NewRedisLocker(redisClient.Client)
	}
	sched := scheduler.New(realClock, locker, cfg.Scheduler.LockTTL)
	if err := scheduler.RegisterSweeps(sched, services.NewSweeperService(deps), cfg.Scheduler); err != nil {
		return fmt.Errorf("register sweeps: %w", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	checks := map[string]router.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}

	// Initialize router
	r := router.Initialize(router.Deps{
		Config:   cfg,
		DB:       db,
		Services: deps,
		Runner:   sched,
		Inbox:    inbox,
		Hub:      hub,
		Gatherer: registry,
		Clock:    realClock,
		Checks:   checks,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	if cfg.Scheduler.Enabled {
		g.Go(func() error {
			return sched.Start(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("Shutting down server...")

		// Create a deadline for shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logrus.Info("Server exited")
	return nil
}
