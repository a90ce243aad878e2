package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/diewo77/go-questions/internal/config"
	"github.com/diewo77/go-questions/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the schema up to date. With MIGRATIONS enabled on postgres the
// versioned SQL migrations run; otherwise gorm AutoMigrate is used.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	if cfg.App.Migrations && cfg.Database.Driver == "postgres" {
		return runSQLMigrations(cfg.Database.URL())
	}
	if err := db.AutoMigrate(&models.User{}, &models.Question{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func runSQLMigrations(url string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
