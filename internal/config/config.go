package config

import (
	"os"
	"strconv"
	"time"

	"tamasya/internal/cache"
	"tamasya/internal/database"
	"tamasya/internal/external"
	"tamasya/internal/messaging"
	"tamasya/internal/search"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Booking behaviour
	ReferencePrefix   string
	PendingTTL        time.Duration
	ProcessorCurrency string
	// ExchangeRate is IDR per one unit of the processor currency. Fixed by
	// configuration; there are no live FX lookups.
	ExchangeRate float64

	Database database.Config
	NATS     messaging.Config
	Valkey   cache.Config
	Search   search.Config
	Stripe   external.StripeConfig
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		ReferencePrefix:   getEnv("BOOKING_REFERENCE_PREFIX", "BK"),
		PendingTTL:        time.Duration(getEnvInt("BOOKING_PENDING_TTL_MIN", 30)) * time.Minute,
		ProcessorCurrency: getEnv("PAYMENT_CURRENCY", "usd"),
		ExchangeRate:      getEnvFloat("PAYMENT_EXCHANGE_RATE_IDR", 16000),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "tamasya"),
			Password:           getEnv("DB_PASSWORD", "tamasya123"),
			DBName:             getEnv("DB_NAME", "tamasya"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "tamasya"),
			ClientID:  getEnv("NATS_CLIENT_ID", "tamasya-api"),
		},

		Valkey: cache.Config{
			Addr:     getEnv("VALKEY_ADDR", "localhost:6379"),
			Password: getEnv("VALKEY_PASSWORD", ""),
			TTLSec:   getEnvInt("VALKEY_TTL_SEC", 300),
		},

		Search: search.Config{
			URL:        getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:   getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:   getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:      getEnv("ELASTICSEARCH_INDEX", "activities"),
			MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		},

		Stripe: external.StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
