package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	Schema             string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	Migrate            bool
}

// MinIOConfig holds object storage settings for user snapshots.
type MinIOConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UseSSL       bool
	URLExpirySec int
}

// Enabled reports whether snapshot storage was configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// HTTPConfig holds server timeouts.
type HTTPConfig struct {
	ReadTimeoutSec     int
	WriteTimeoutSec    int
	IdleTimeoutSec     int
	ShutdownTimeoutSec int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	Timezone       string
	StorageBackend string
	HTTP           HTTPConfig
	Database       DatabaseConfig
	MinIO          MinIOConfig
}

// Storage backends accepted in STORAGE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// Real environment variables take precedence over .env values.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		StorageBackend: getEnv("STORAGE_BACKEND", BackendPostgres),
		HTTP: HTTPConfig{
			ReadTimeoutSec:     getEnvInt("HTTP_READ_TIMEOUT_SEC", 10),
			WriteTimeoutSec:    getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 10),
			IdleTimeoutSec:     getEnvInt("HTTP_IDLE_TIMEOUT_SEC", 60),
			ShutdownTimeoutSec: getEnvInt("SHUTDOWN_TIMEOUT_SEC", 10),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			Schema:             getEnv("DB_SCHEMA", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			Migrate:            getEnvBool("DB_MIGRATE", true),
		},
		MinIO: MinIOConfig{
			Endpoint:     getEnv("MINIO_ENDPOINT", ""),
			AccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:    getEnv("MINIO_SECRET_KEY", ""),
			Bucket:       getEnv("MINIO_BUCKET", ""),
			UseSSL:       getEnvBool("MINIO_USE_SSL", false),
			URLExpirySec: getEnvInt("SNAPSHOT_URL_EXPIRY_SEC", 900),
		},
	}
}

// Location resolves Timezone, falling back to UTC when the zone is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// ReadTimeout returns the server read timeout.
func (c HTTPConfig) ReadTimeout() time.Duration { return seconds(c.ReadTimeoutSec) }

// WriteTimeout returns the server write timeout.
func (c HTTPConfig) WriteTimeout() time.Duration { return seconds(c.WriteTimeoutSec) }

// IdleTimeout returns the keep-alive idle timeout.
func (c HTTPConfig) IdleTimeout() time.Duration { return seconds(c.IdleTimeoutSec) }

// ShutdownTimeout bounds graceful shutdown.
func (c HTTPConfig) ShutdownTimeout() time.Duration { return seconds(c.ShutdownTimeoutSec) }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
