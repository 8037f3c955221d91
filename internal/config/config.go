package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// NodeID seeds the snowflake generator for activity event ids. It
	// must differ between instances sharing one database.
	NodeID int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Activity ActivityConfig
	Redis    RedisConfig

	MigrateOnStart bool

	LowStockScanEnabled bool
	LowStockScanSpec    string
}

type ActivityConfig struct {
	Queue      string
	BufferSize int
	Stream     string
	Group      string
	Consumer   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	ActivityQueueMemory = "memory"
	ActivityQueueRedis  = "redis"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	hostname, _ := os.Hostname()

	return Config{
		AppName:           getenv("APP_SERVICE", "apotek"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		NodeID:            int64(getenvInt("NODE_ID", 1)),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "apotek"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		Activity: ActivityConfig{
			Queue:      normalizeQueue(getenv("ACTIVITY_QUEUE", ActivityQueueMemory)),
			BufferSize: getenvInt("ACTIVITY_BUFFER_SIZE", 1024),
			Stream:     getenv("ACTIVITY_STREAM", "apotek:activity"),
			Group:      getenv("ACTIVITY_GROUP", "activity-writer"),
			Consumer:   getenv("ACTIVITY_CONSUMER", hostname),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		MigrateOnStart:      getenvBool("MIGRATE_ON_START", true),
		LowStockScanEnabled: getenvBool("LOW_STOCK_SCAN_ENABLED", true),
		LowStockScanSpec:    getenv("LOW_STOCK_SCAN_SPEC", "@every 1h"),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// RedisEnabled reports whether a Redis address was configured.
func (c Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c Config) ConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetime) * time.Second
}

func (c Config) ConnMaxIdleTime() time.Duration {
	return time.Duration(c.DBConnMaxIdleTime) * time.Second
}

func normalizeQueue(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case ActivityQueueRedis:
		return ActivityQueueRedis
	default:
		return ActivityQueueMemory
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
