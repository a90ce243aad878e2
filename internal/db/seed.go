package db

import (
	"context"
	"log/slog"

	"github.com/diewo77/go-questions/internal/config"
	"github.com/diewo77/go-questions/internal/services"
	"gorm.io/gorm"
)

// Seed creates the configured admin account. It is idempotent and does nothing
// when no admin is configured.
func Seed(ctx context.Context, db *gorm.DB, admin config.AdminConfig) error {
	if admin.Name == "" || admin.Password == "" {
		slog.Info("no admin configured, skipping seed")
		return nil
	}
	u, err := services.NewUserService(db).EnsureAdmin(ctx, admin.Name, admin.Password)
	if err != nil {
		return err
	}
	slog.Info("admin account ready", "user", u.Name, "id", u.ID)
	return nil
}
