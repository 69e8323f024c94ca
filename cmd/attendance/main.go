package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rfid-attendance/attendance/cmd/attendance/cli"
	"github.com/rfid-attendance/attendance/internal/app"
	"github.com/rfid-attendance/attendance/internal/auth"
	"github.com/rfid-attendance/attendance/internal/observability"
	"github.com/rfid-attendance/attendance/internal/platform/cache"
	"github.com/rfid-attendance/attendance/internal/platform/password"
	"github.com/rfid-attendance/attendance/internal/shared"
	"github.com/rfid-attendance/attendance/internal/users"
	"github.com/rfid-attendance/attendance/internal/view"
	"github.com/rfid-attendance/attendance/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	switch command {
	case "serve":
		if err := serve(ctx, stop, cfg, logger); err != nil {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	case "migrate":
		cfg.MigrateOnStart = true
		store, err := app.OpenStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
		store.Close()
		logger.Info("migrations applied", slog.String("driver", cfg.StoreDriver))
	case "jobs":
		jobsCLI := cli.NewJobsCLI(cfg.QueueRedis())
		code := jobsCLI.Command(ctx, os.Args[2:], cli.CommandOptions{})
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
		os.Exit(code)
	default:
		logger.Error("unknown command", slog.String("command", command))
		os.Exit(2)
	}
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "attendance_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return err
	}

	hasher, err := password.New(cfg.PasswordScheme, cfg.BcryptCost)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(cfg.QueueRedis())
	if err != nil {
		return err
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	serviceCfg := users.ServiceConfig{
		Audit:    store.Audit,
		Observer: metrics,
		Logger:   logger,
	}
	if cfg.WelcomeEmail {
		serviceCfg.Notifier = jobs.NewWelcomeNotifier(jobClient, cfg.AppName, logger)
	}
	usersService := users.NewService(store.Users, hasher, serviceCfg)
	usersHandler := users.NewHandler(logger, usersService, templates, csrfManager)

	authService := auth.NewService(store.Users, hasher, store.Sessions)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	inspector := asynq.NewInspector(cfg.QueueRedis())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		AuthMiddleware: auth.Middleware{Service: authService, Sessions: sessionManager, Logger: logger},
		UsersHandler:   usersHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
		Readiness: map[string]app.ReadinessCheck{
			"database": store.Ping,
			"redis": func(ctx context.Context) error {
				return cache.Ping(ctx, redisClient)
			},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
