package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is the hosted inference API the front-end talks to.
const DefaultAPIBaseURL = "https://pneumonia-prediction-016u.onrender.com"

type Config struct {
	Port                 int
	Password             string // empty disables the login gate
	APIBaseURL           string
	APITimeout           time.Duration // 0 = no client-side timeout
	MaxUploadSize        int64         // bytes
	SessionStore         string        // "memory" or "sqlite"
	DatabasePath         string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	PreviewSize          int // longest thumbnail edge in pixels
	LogDirectory         string
	LogLevel             string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env is the normal case in containers.
	_ = godotenv.Load()

	return &Config{
		Port:                 getEnvAsInt("PORT", 8080),
		Password:             getEnv("PASSWORD", ""),
		APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", DefaultAPIBaseURL), "/"),
		APITimeout:           getEnvAsDuration("API_TIMEOUT", 0),
		MaxUploadSize:        getEnvAsInt64("MAX_UPLOAD_MB", 10) << 20,
		SessionStore:         strings.ToLower(getEnv("SESSION_STORE", "memory")),
		DatabasePath:         getEnv("DB_PATH", filepath.Join(".", "data", "sessions.db")),
		SessionTTL:           getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		PreviewSize:          getEnvAsInt("PREVIEW_SIZE", 512),
		LogDirectory:         getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
