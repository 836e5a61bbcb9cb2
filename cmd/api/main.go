package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"task_tracker/internal/auth"
	"task_tracker/internal/clock"
	"task_tracker/internal/config"
	"task_tracker/internal/events"
	"task_tracker/internal/handler"
	"task_tracker/internal/observability"
	"task_tracker/internal/queue"
	"task_tracker/internal/store"
	"task_tracker/internal/task"
	"task_tracker/internal/user"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := observability.SetupLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)
	logrus.Info("Metrics initialized")

	stores, err := store.Open(ctx, cfg, metrics)
	if err != nil {
		logrus.WithError(err).WithField("backend", cfg.StoreBackend).Fatal("Failed to open store")
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close store")
		}
	}()

	clk := clock.Real()
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.TTL, clk)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create token service")
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	if cfg.Auth.BootstrapAdminUsername != "" {
		bootstrap := user.NewUserService(stores.Users, hasher, tokens, user.ServiceOptions{Metrics: metrics})
		admin, err := bootstrap.EnsureUser(ctx, cfg.Auth.BootstrapAdminUsername, cfg.Auth.BootstrapAdminPassword, user.RoleAdmin)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to bootstrap admin user")
		}
		logrus.WithFields(logrus.Fields{
			"username": admin.Username,
			"role":     admin.Role,
		}).Info("Bootstrap admin ready")
	}

	var publisher task.EventPublisher
	if cfg.RabbitMQ.Enabled() {
		conn, p, err := setupPublisher(ctx, &cfg.RabbitMQ, metrics)
		if err != nil {
			logrus.WithError(err).Warn("Task notifications disabled")
		} else {
			publisher = p
			defer func() {
				if err := conn.Close(); err != nil {
					logrus.WithError(err).Error("Failed to close RabbitMQ connection")
				}
			}()
		}
	}

	r := handler.SetupHandler(handler.Dependencies{
		Users:            stores.Users,
		Tasks:            stores.Tasks,
		Tokens:           tokens,
		Hasher:           hasher,
		Clock:            clk,
		Publisher:        publisher,
		Metrics:          metrics,
		Gatherer:         registry,
		AllowAdminSignup: cfg.Auth.AllowAdminSignup,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"backend": stores.Backend,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}
}

func setupPublisher(ctx context.Context, cfg *config.RabbitMQConfig, metrics *observability.Metrics) (*amqp.Connection, *events.Publisher, error) {
	conn, err := queue.SetupRabbitMQ(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	ch, err := queue.CreateChannel(conn)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	if _, err := queue.DeclareQueue(ch, cfg.Queue); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return conn, events.NewPublisher(ch, cfg.Queue, metrics), nil
}
