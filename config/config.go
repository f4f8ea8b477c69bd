package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string

	RedisAddr string
	CartTTL   time.Duration

	KafkaBrokers []string
	ServiceName  string

	CustomerServiceURL  string
	ProductServiceURL   string
	InventoryServiceURL string
	InternalToken       string

	ReservationTTLMinutes int

	// inventory ledger process
	InventoryPort string
	SweepInterval time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8083"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr: getEnv("REDIS_ADDR", "redis:6379"),
		CartTTL:   getDuration("CART_TTL", 7*24*time.Hour),

		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "kafka:9092")),
		ServiceName:  getEnv("SERVICE_NAME", "order-service"),

		CustomerServiceURL:  getEnv("CUSTOMER_SERVICE_URL", "http://user-service:8081"),
		ProductServiceURL:   getEnv("PRODUCT_SERVICE_URL", "http://product-service:8082"),
		InventoryServiceURL: getEnv("INVENTORY_SERVICE_URL", "http://inventory-service:8084"),
		InternalToken:       os.Getenv("INTERNAL_TOKEN"),

		ReservationTTLMinutes: getInt("RESERVATION_TTL_MINUTES", 30),

		InventoryPort: getEnv("INVENTORY_PORT", "8084"),
		SweepInterval: getDuration("RESERVATION_SWEEP_INTERVAL", time.Minute),
	}

	if cfg.InternalToken == "" {
		return nil, fmt.Errorf("INTERNAL_TOKEN is required")
	}
	return cfg, nil
}

// PostgresDSN builds the gorm connection string. Validity of the individual
// fields is checked here rather than in Load so that the inventory process,
// which has no database, can share Load.
func (c *Config) PostgresDSN() (string, error) {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return "", fmt.Errorf("database config incomplete")
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort, c.PostgresSSLMode), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
