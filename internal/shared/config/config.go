package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Kafka configuration
	Kafka KafkaConfig

	// Hold lifecycle
	Holds HoldConfig

	// Deposit lifecycle
	Deposits DepositConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL for cached availability calendars
	AvailabilityTTL time.Duration
}

// KafkaConfig holds Kafka topics and consumer group settings
type KafkaConfig struct {
	Brokers           []string
	PaymentTopic      string
	NoticeTopic       string
	RefundTopic       string
	ConsumerGroupID   string
	ConsumerWorkers   int
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
}

// HoldConfig controls the provisional-hold lifecycle
type HoldConfig struct {
	DefaultDuration time.Duration
	MaxDuration     time.Duration
	SweepInterval   time.Duration
	SweepBatchSize  int
}

// DepositConfig controls the deposit refund sweep
type DepositConfig struct {
	GracePeriod    time.Duration
	SweepInterval  time.Duration
	SweepBatchSize int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled             bool          `json:"enabled"`
	WindowDuration      time.Duration `json:"window_duration"`
	DefaultRequests     int           `json:"default_requests"`
	PublicRequests      int           `json:"public_requests"`
	ReservationRequests int           `json:"reservation_requests"`
	AdminRequests       int           `json:"admin_requests"`
	HealthRequests      int           `json:"health_requests"`
	WhitelistedIPs      []string      `json:"whitelisted_ips"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "reservio_db"),
			User:     getEnv("DB_USER", "reservio_user"),
			Password: getEnv("DB_PASSWORD", "reservio_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			AvailabilityTTL: getDurationEnv("REDIS_AVAILABILITY_TTL", 30*time.Second),
		},

		// Kafka configuration
		Kafka: KafkaConfig{
			Brokers:           getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			PaymentTopic:      getEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),
			NoticeTopic:       getEnv("KAFKA_NOTICE_TOPIC", "reservation-notices"),
			RefundTopic:       getEnv("KAFKA_REFUND_TOPIC", "refund-commands"),
			ConsumerGroupID:   getEnv("KAFKA_CONSUMER_GROUP", "reservio-payment-workers"),
			ConsumerWorkers:   getIntEnv("KAFKA_CONSUMER_WORKERS", 2),
			SessionTimeout:    getDurationEnv("KAFKA_SESSION_TIMEOUT", 30*time.Second),
			HeartbeatInterval: getDurationEnv("KAFKA_HEARTBEAT_INTERVAL", 3*time.Second),
		},

		// Hold lifecycle
		Holds: HoldConfig{
			DefaultDuration: getDurationEnv("HOLD_DEFAULT_DURATION", 15*time.Minute),
			MaxDuration:     getDurationEnv("HOLD_MAX_DURATION", 2*time.Hour),
			SweepInterval:   getDurationEnv("HOLD_SWEEP_INTERVAL", time.Minute),
			SweepBatchSize:  getIntEnv("HOLD_SWEEP_BATCH_SIZE", 100),
		},

		// Deposit lifecycle
		Deposits: DepositConfig{
			GracePeriod:    getDurationEnv("DEPOSIT_GRACE_PERIOD", 48*time.Hour),
			SweepInterval:  getDurationEnv("DEPOSIT_SWEEP_INTERVAL", 24*time.Hour),
			SweepBatchSize: getIntEnv("DEPOSIT_SWEEP_BATCH_SIZE", 100),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:             getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:      getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:     getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:      getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			ReservationRequests: getIntEnv("RATE_LIMIT_RESERVATION_REQUESTS", 20),
			AdminRequests:       getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			HealthRequests:      getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 300),
			WhitelistedIPs:      getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
