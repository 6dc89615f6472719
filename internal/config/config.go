package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogMode string

	// Database (optional, only used when PerformanceStore is "postgres")
	DatabaseURL   string
	MigrationsDir string

	// Redis (optional; sessions, locks and events stay in-process without it)
	RedisURL string

	// JWT
	JWTSecret string

	// Performance tracking
	PerformanceStore string // "file" | "postgres"
	UserDataDir      string

	// Flashcard generation
	GeneratorSeed         uint64
	GenerateRatePerMinute int
	ReviewSessionTTL      time.Duration
	SessionSweepSchedule  string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		Env:                   getEnvOrDefault("ENV", "development"),
		LogMode:               getEnvOrDefault("LOG_MODE", "development"),
		DatabaseURL:           getEnvOrDefault("DATABASE_URL", ""),
		MigrationsDir:         getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:              getEnvOrDefault("REDIS_URL", ""),
		JWTSecret:             mustGetEnv("JWT_SECRET"),
		PerformanceStore:      getEnvOrDefault("PERFORMANCE_STORE", "file"),
		UserDataDir:           getEnvOrDefault("USER_DATA_DIR", "user_data"),
		GeneratorSeed:         uint64(getEnvAsIntOrDefault("GENERATOR_SEED", 0)),
		GenerateRatePerMinute: getEnvAsIntOrDefault("GENERATE_RATE_LIMIT_PER_MIN", 30),
		ReviewSessionTTL:      getEnvAsDurationOrDefault("SESSION_TTL", 2*time.Hour),
		SessionSweepSchedule:  getEnvOrDefault("SESSION_SWEEP_SCHEDULE", "0 */5 * * * *"),
		FrontendURL:           getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.PerformanceStore == "postgres" && cfg.DatabaseURL == "" {
		panic("PERFORMANCE_STORE=postgres requires DATABASE_URL")
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
