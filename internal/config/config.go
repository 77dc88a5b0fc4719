package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Collections struct {
	Locations  string
	Shops      string
	Categories string
	Products   string
	Orders     string
	OrderItems string
}

type Config struct {
	LogLevel string

	MongoURI    string
	MongoDBName string
	Collections Collections

	// BreakerFailures consecutive backend failures open the circuit breaker
	// for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// Session storage: Redis when RedisAddr is set, otherwise SQLite at SessionDBPath.
	RedisAddr        string
	RedisPassword    string
	SessionNamespace string
	SessionDBPath    string

	KafkaBrokers []string
	OrdersTopic  string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Notice: .env file not loaded: %v. Using system environment variables", err)
	}

	return &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "storefront"),
		Collections: Collections{
			Locations:  getEnv("COLLECTION_LOCATIONS", "locations"),
			Shops:      getEnv("COLLECTION_SHOPS", "shops"),
			Categories: getEnv("COLLECTION_CATEGORIES", "categories"),
			Products:   getEnv("COLLECTION_PRODUCTS", "products"),
			Orders:     getEnv("COLLECTION_ORDERS", "orders"),
			OrderItems: getEnv("COLLECTION_ORDER_ITEMS", "order_items"),
		},
		BreakerFailures:  uint32(getEnvInt("BREAKER_FAILURES", 5)),
		BreakerTimeout:   getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		SessionNamespace: getEnv("SESSION_NAMESPACE", "storefront"),
		SessionDBPath:    getEnv("SESSION_DB_PATH", "storefront-session.db"),
		KafkaBrokers:     splitList(getEnv("KAFKA_BROKERS", "")),
		OrdersTopic:      getEnv("KAFKA_ORDERS_TOPIC", "orders-placed"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
