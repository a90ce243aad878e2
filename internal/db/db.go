// Package db opens the database, applies the schema and seeds the admin account.
package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/diewo77/go-questions/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// Open connects with the configured driver. Postgres connections are retried
// to give the server time to start. gorm logging stays silent unless Debug is set.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	attempts := 1
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
		attempts = connectAttempts
		slog.Info("connecting to database", "driver", cfg.Driver, "host", cfg.Host, "port", cfg.Port, "dbname", cfg.DBName, "user", cfg.User)
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
		slog.Info("connecting to database", "driver", cfg.Driver, "path", cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	var db *gorm.DB
	var err error
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			err = db.Exec("SELECT 1").Error
		}
		if err == nil {
			return db, nil
		}
		if i < attempts {
			slog.Warn("database not ready, retrying", "attempt", i, "error", err)
			time.Sleep(connectBackoff)
		}
	}
	return nil, fmt.Errorf("connect database after %d attempts: %w", attempts, err)
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
