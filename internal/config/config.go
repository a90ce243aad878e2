// Package config provides application configuration loaded from environment variables.
package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	App      AppConfig
	Policy   PolicyConfig
	Admin    AdminConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
	Debug      bool
}

// SessionConfig holds the session signing secret and the session store settings.
// Secret is regenerated on every process start unless SESSION_SECRET is set.
type SessionConfig struct {
	Secret        []byte
	Store         string // "cookie" or "redis"
	MaxAge        time.Duration
	Secure        bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev          bool
	Migrations   bool
	TemplatesDir string
}

// PolicyConfig toggles stricter checks on login, ask and answer.
// All default to the permissive behaviour.
type PolicyConfig struct {
	LoginErrorOnGet         bool
	AskRequiresExpert       bool
	AnswerRequiresAddressee bool
}

// AdminConfig describes the administrator account seeded at startup.
// Seeding is skipped when either field is empty.
type AdminConfig struct {
	Name     string
	Password string
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "questions"),
			Password:   getEnv("DB_PASSWORD", "questions123"),
			DBName:     getEnv("DB_NAME", "questions"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "questions.db"),
			Debug:      getEnvBool("DB_DEBUG", false),
		},
		Session: SessionConfig{
			Secret:        sessionSecret(os.Getenv("SESSION_SECRET")),
			Store:         strings.ToLower(getEnv("SESSION_STORE", "cookie")),
			MaxAge:        time.Duration(getEnvInt("SESSION_MAX_AGE_HOURS", 0)) * time.Hour,
			Secure:        getEnvBool("SESSION_SECURE", false),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		App: AppConfig{
			Dev:          getEnvBool("DEV", false),
			Migrations:   getEnvBool("MIGRATIONS", false),
			TemplatesDir: os.Getenv("TEMPLATES_DIR"),
		},
		Policy: PolicyConfig{
			LoginErrorOnGet:         getEnvBool("LOGIN_ERROR_ON_GET", true),
			AskRequiresExpert:       getEnvBool("ASK_REQUIRES_EXPERT", false),
			AnswerRequiresAddressee: getEnvBool("ANSWER_REQUIRES_ADDRESSEE", false),
		},
		Admin: AdminConfig{
			Name:     os.Getenv("ADMIN_NAME"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}
}

// sessionSecret returns the configured secret or 24 random bytes.
func sessionSecret(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	b := make([]byte, 24)
	rand.Read(b)
	return b
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
