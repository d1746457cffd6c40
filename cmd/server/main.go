// @title                       Mentorship API
// @version                     1.0
// @description                 Project mentorship platform: teachers publish projects, students apply, owners adjudicate.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/mindmesh/mentorship/docs"
	"github.com/mindmesh/mentorship/internal/api"
	"github.com/mindmesh/mentorship/internal/api/handler"
	"github.com/mindmesh/mentorship/internal/core/ports"
	"github.com/mindmesh/mentorship/internal/core/service"
	"github.com/mindmesh/mentorship/internal/infrastructure/db/mongo"
	"github.com/mindmesh/mentorship/internal/infrastructure/db/redis"
	"github.com/mindmesh/mentorship/internal/infrastructure/mail"
	"github.com/mindmesh/mentorship/internal/infrastructure/queue"
	"github.com/mindmesh/mentorship/internal/pkg/config"
	"github.com/mindmesh/mentorship/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		// The singleton may not be initialised when configuration fails.
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "mentorship-api",
	})
	serverLog := logger.For("server")

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}()

	users := mongo.NewUserRepository(db)
	projects := mongo.NewProjectRepository(db)
	applications := mongo.NewApplicationRepository(db)
	notifications := mongo.NewNotificationRepository(db)

	// --- Event delivery ---
	notifier := service.NewNotifier(notifications, users, log)
	events, closeEvents := eventPublisher(cfg.Notify, notifier, log)

	// --- Services ---
	authService := service.NewAuthService(users, mail.NewLogMailer(log), service.AuthConfig{
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.TokenTTL,
		ResetCodeTTL: cfg.ResetCodeTTL,
	}, log)

	e := api.NewRouter(api.Dependencies{
		Auth:          authService,
		Users:         service.NewUserService(users, log),
		Projects:      service.NewProjectService(projects, applications, users, events, log),
		Applications:  service.NewApplicationService(applications, projects, users, redis.NewSubmitLock(rdb, cfg.Redis.SubmitLockTTL, log), events, log),
		Notifications: service.NewNotificationService(notifications),
		Readiness: map[string]handler.PingFunc{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log: log,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverLog.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		serverLog.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		serverLog.Error().Err(err).Msg("http shutdown failed")
	}
	if err := closeEvents(shutdownCtx); err != nil {
		serverLog.Warn().Err(err).Msg("pending notifications were not delivered before shutdown")
	}

	serverLog.Info().Msg("server stopped")
	return nil
}

// eventPublisher selects asynchronous delivery through the sharded
// dispatcher, or inline delivery when no workers are configured.
func eventPublisher(cfg config.NotifyConfig, handler ports.EventHandler, log zerolog.Logger) (ports.EventPublisher, func(context.Context) error) {
	if cfg.Workers == 0 {
		log.Info().Msg("notifications delivered inline")
		return queue.NewInline(handler), func(context.Context) error { return nil }
	}

	d := queue.NewDispatcher(cfg.Workers, cfg.Buffer, handler, log)
	d.Start(context.Background())
	log.Info().Int("workers", cfg.Workers).Int("buffer", cfg.Buffer).Msg("notification dispatcher started")
	return d, d.Close
}

