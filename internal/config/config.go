package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Payment  PaymentConfig
	App      AppConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Enabled  bool
	MockMode bool
}

// PaymentConfig drives the simulated card authorization step and the
// per-bill settlement lock.
type PaymentConfig struct {
	AuthDelay   time.Duration
	AuthTimeout time.Duration
	LockTTL     time.Duration
	LockWait    time.Duration
}

type AppConfig struct {
	// BaseURL prefixes the QR entry URL encoded on table QR codes.
	BaseURL  string
	SeedData bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "billing_user"),
			Password:     getEnv("DB_PASSWORD", "billing_pass"),
			Database:     getEnv("DB_NAME", "billsplit"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:    getEnv("KAFKA_TOPIC_BILL_EVENTS", "bill-events"),
			Enabled:  getEnvBool("KAFKA_ENABLED", true),
			MockMode: getEnvBool("KAFKA_MOCK_MODE", false),
		},
		Payment: PaymentConfig{
			AuthDelay:   time.Duration(getEnvInt("PAYMENT_AUTH_DELAY_MS", 3000)) * time.Millisecond,
			AuthTimeout: time.Duration(getEnvInt("PAYMENT_AUTH_TIMEOUT_MS", 10000)) * time.Millisecond,
			LockTTL:     time.Duration(getEnvInt("BILL_LOCK_TTL_SECONDS", 30)) * time.Second,
			LockWait:    time.Duration(getEnvInt("BILL_LOCK_WAIT_MS", 5000)) * time.Millisecond,
		},
		App: AppConfig{
			BaseURL:  getEnv("APP_BASE_URL", "https://splitbill.app"),
			SeedData: getEnvBool("SEED_DATA", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
