package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rfid-attendance/attendance/internal/app"
	"github.com/rfid-attendance/attendance/internal/platform/password"
	"github.com/rfid-attendance/attendance/internal/users"
)

type seedUser struct {
	Name     string
	Email    string
	Password string
}

func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg).With(slog.String("component", "seed"))

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	hasher, err := password.New(cfg.PasswordScheme, cfg.BcryptCost)
	if err != nil {
		logger.Error("init hasher", slog.Any("error", err))
		os.Exit(1)
	}
	service := users.NewService(store.Users, hasher, users.ServiceConfig{Audit: store.Audit, Logger: logger})

	seeds := []seedUser{
		{
			Name:     getenv("SEED_ADMIN_NAME", "Administrator"),
			Email:    getenv("SEED_ADMIN_EMAIL", "admin@attendance.local"),
			Password: getenv("SEED_ADMIN_PASSWORD", "admin123"),
		},
	}
	for _, seed := range seeds {
		if err := seedOne(ctx, service, seed); err != nil {
			logger.Error("seed user", slog.String("email", seed.Email), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("seeded user", slog.String("email", seed.Email))
	}
	logger.Info("seed complete", slog.String("at", time.Now().Format(time.RFC3339)))
}

// seedOne creates the user unless the email is already registered.
func seedOne(ctx context.Context, service *users.Service, seed seedUser) error {
	_, err := service.CreateUser(ctx, users.CreateInput{
		Name:                 seed.Name,
		Email:                seed.Email,
		Password:             seed.Password,
		PasswordConfirmation: seed.Password,
	})
	if err == nil {
		return nil
	}
	if fields := users.FieldErrors(err); fields["email"] == "already taken" && len(fields) == 1 {
		return nil
	}
	return fmt.Errorf("seed: create %s: %w", seed.Email, err)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
