package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis (session-scoped conversation storage)
	RedisURL string

	// Session cookie signing
	SessionSecret   string
	SessionTTLHours int

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiTemperature    float64
	GeminiConcurrentReqs int
	GeminiTimeoutSecs    int
	GeminiMaxRetries     int

	// Context-window budgeting
	HistoryMaxTurns int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		SessionSecret:        mustGetEnv("SESSION_SECRET"),
		SessionTTLHours:      getEnvAsIntOrDefault("SESSION_TTL_HOURS", 168),
		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTemperature:    getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.5),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		GeminiTimeoutSecs:    getEnvAsIntOrDefault("GEMINI_TIMEOUT_SECONDS", 60),
		GeminiMaxRetries:     getEnvAsIntOrDefault("GEMINI_MAX_RETRIES", 2),
		HistoryMaxTurns:      getEnvAsIntOrDefault("HISTORY_MAX_TURNS", 40),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:8080"),
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

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
