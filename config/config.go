package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	Server  ServerConfig
	Redis   RedisConfig
	Booking BookingConfig
	Payment PaymentConfig
	Catalog CatalogConfig
	JWT     JWTConfig
	Log     LogConfig
	Kafka   KafkaConfig
}

type ServerConfig struct {
	HTTPPort     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	PoolSize     int
	MinIdleConns int
}

type BookingConfig struct {
	HoldTTL        time.Duration
	SweepInterval  time.Duration
	SweepBatchSize int
	MaxQuantity    int
}

type PaymentConfig struct {
	Currency        string
	Provider        string
	ProviderTimeout time.Duration
	CouponTable     string
}

type CatalogConfig struct {
	Addr    string
	Timeout time.Duration
}

type KafkaConfig struct {
	Brokers              []string
	ClientID             string
	ProducerRetryMax     int
	ProducerRequiredAcks int
	Enabled              bool
	ConsumerGroupID      string
}

type JWTConfig struct {
	Secret string
}

type LogConfig struct {
	Level    string
	Mode     string
	Encoding string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			HTTPPort:     getEnvAsInt("SERVER_HTTP_PORT", 8086),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		Booking: BookingConfig{
			HoldTTL:        getEnvAsDuration("BOOKING_HOLD_TTL", 10*time.Minute),
			SweepInterval:  getEnvAsDuration("BOOKING_SWEEP_INTERVAL", 30*time.Second),
			SweepBatchSize: getEnvAsInt("BOOKING_SWEEP_BATCH_SIZE", 100),
			MaxQuantity:    getEnvAsInt("BOOKING_MAX_QUANTITY", 10),
		},
		Payment: PaymentConfig{
			Currency:        getEnv("PAYMENT_CURRENCY", "INR"),
			Provider:        getEnv("PAYMENT_PROVIDER", "simulated"),
			ProviderTimeout: getEnvAsDuration("PAYMENT_PROVIDER_TIMEOUT", 5*time.Second),
			CouponTable:     getEnv("COUPON_TABLE", "FREE100:full,DEVTEST:full,NEWUSER10:percent:10"),
		},
		Catalog: CatalogConfig{
			Addr:    getEnv("EVENT_CATALOG_ADDR", "http://localhost:8082"),
			Timeout: getEnvAsDuration("EVENT_CATALOG_TIMEOUT", 5*time.Second),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "jwt-secret"),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Mode:     getEnv("LOG_MODE", "development"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
		Kafka: KafkaConfig{
			Brokers:              getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			ClientID:             getEnv("KAFKA_CLIENT_ID", "ticketbottle-booking"),
			ProducerRetryMax:     getEnvAsInt("KAFKA_PRODUCER_RETRY_MAX", 3),
			ProducerRequiredAcks: getEnvAsInt("KAFKA_PRODUCER_REQUIRED_ACKS", 1),
			Enabled:              getEnvAsBool("KAFKA_ENABLED", true),
			ConsumerGroupID:      getEnv("KAFKA_CONSUMER_GROUP_ID", "booking-service"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.HTTPPort)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if c.Booking.HoldTTL <= 0 {
		return fmt.Errorf("invalid hold TTL: %v", c.Booking.HoldTTL)
	}

	if c.Booking.MaxQuantity < 1 {
		return fmt.Errorf("invalid max quantity: %d", c.Booking.MaxQuantity)
	}

	if c.JWT.Secret == "" {
		if c.Env == "production" {
			return fmt.Errorf("JWT secret must be set in production")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	// Split by comma
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
