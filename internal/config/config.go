// Package config loads the console's settings from the environment (and a
// .env file when present).
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	BackendURL string

	StorageDriver string // sqlite | mysql | redis | memory
	DBDSN         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL  string
	GeminiAPIKey string

	AllowedOrigin     string
	ShopName          string
	ProfileSync       time.Duration
	SearchDebounce    time.Duration
	AllowRegistration bool
}

// Load reads .env (if any) and then the environment. Every key has a default
// so a bare `go run ./cmd/server` works against a local backend.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}
	return Config{
		Port:              getEnv("PORT", "8080"),
		BackendURL:        strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8081"), "/"),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite")),
		DBDSN:             os.Getenv("DB_DSN"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getInt("REDIS_DB", 0),
		RabbitMQURL:       os.Getenv("RABBITMQ_URL"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		AllowedOrigin:     getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		ShopName:          getEnv("SHOP_NAME", "POS"),
		ProfileSync:       time.Duration(getInt("PROFILE_SYNC_MINUTES", 15)) * time.Minute,
		SearchDebounce:    time.Duration(getInt("SEARCH_DEBOUNCE_MS", 300)) * time.Millisecond,
		AllowRegistration: os.Getenv("ALLOW_REGISTRATION") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getInt falls back on a missing or unparsable value and says so.
func getInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("⚠️ invalid int for %s: %q, using %d", key, s, fallback)
		return fallback
	}
	return n
}
