package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds settings read from the environment. Command-line flags in
// cmd/zaloga use these as their defaults.
type Config struct {
	DBPath     string
	Addr       string
	AdminEmail string
	LogPath    string
	LogLevel   string
	JWTSecret  string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RestockChannel string

	OTLPEndpoint string

	// RateLimit is a ulule/limiter formatted rate such as "10-M".
	RateLimit         string
	NotifyConcurrency int
}

// Load reads an optional .env file and then the ZALOGA_* environment.
func Load() *Config {
	// A missing .env is normal.
	_ = godotenv.Load()

	return &Config{
		DBPath:     getEnv("ZALOGA_DB", "zaloga.sqlite3"),
		Addr:       getEnv("ZALOGA_ADDR", ":8080"),
		AdminEmail: getEnv("ZALOGA_ADMIN_EMAIL", "admin@localhost.localdomain"),
		LogPath:    getEnv("ZALOGA_LOG", ""),
		LogLevel:   getEnv("ZALOGA_LOG_LEVEL", "info"),
		JWTSecret:  getEnv("ZALOGA_JWT_SECRET", ""),

		RedisAddr:      getEnv("ZALOGA_REDIS_ADDR", ""),
		RedisPassword:  getEnv("ZALOGA_REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("ZALOGA_REDIS_DB", 0),
		RestockChannel: getEnv("ZALOGA_RESTOCK_CHANNEL", "zaloga.restock"),

		OTLPEndpoint: getEnv("ZALOGA_OTLP_ENDPOINT", ""),

		RateLimit:         getEnv("ZALOGA_RATE_LIMIT", "10-M"),
		NotifyConcurrency: getEnvAsInt("ZALOGA_NOTIFY_CONCURRENCY", 8),
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
