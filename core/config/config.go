package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel        OTelConfig
	ArangoDB    ArangoDBConfig
	UserService UserServiceConfig
	Reconciler  ReconcilerConfig
	Env         string
	Port        string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type ArangoDBConfig struct {
	URL      string
	Username string
	Password string
	Database string
}

// UserServiceConfig points at the external user-management service that
// provisions users for an institution.
type UserServiceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ReconcilerConfig drives the orphaned-user sweep in cmd/worker.
type ReconcilerConfig struct {
	Interval  time.Duration
	BatchSize int
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the API server
//   - .env.worker for the reconciliation worker
//
// Falls back to .env if the service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("INSTITUTION_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:  getEnv("INSTITUTION_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "institution-service"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
		},
		ArangoDB: ArangoDBConfig{
			URL:      getEnv("ARANGO_URL", "http://localhost:8529"),
			Username: getEnv("ARANGO_USERNAME", "root"),
			Password: getEnv("ARANGO_PASSWORD", ""),
			Database: getEnv("ARANGO_DATABASE", "institutions"),
		},
		UserService: UserServiceConfig{
			BaseURL: getEnv("USER_SERVICE_URL", ""),
			Timeout: getEnvDuration("USER_SERVICE_TIMEOUT", 10*time.Second),
		},
		Reconciler: ReconcilerConfig{
			Interval:  getEnvDuration("RECONCILER_INTERVAL", time.Minute),
			BatchSize: getEnvInt("RECONCILER_BATCH_SIZE", 50),
		},
	}

	if cfg.UserService.BaseURL == "" {
		return Config{}, fmt.Errorf("USER_SERVICE_URL is required")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
