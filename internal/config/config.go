package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Diagnosis backend (reached through the tunnel proxy)
	DiagnosisBaseURL    string
	DiagnosisTimeout    time.Duration
	DiagnosisHealthPath string
	DefaultMaxTokens    int
	DefaultTemperature  float64

	// HTTP surface
	RateLimitPerSecond float64
	RateLimitBurst     int
	AdminJWTSecret     string

	// Session memory
	HistoryLimit  int
	ContextWindow int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8002"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		DiagnosisBaseURL:    getEnv("DIAGNOSIS_BASE_URL", "http://localhost:8001"),
		DiagnosisTimeout:    getEnvAsDuration("DIAGNOSIS_TIMEOUT", 30*time.Second),
		DiagnosisHealthPath: getEnv("DIAGNOSIS_HEALTH_PATH", "/health"),
		DefaultMaxTokens:    getEnvAsInt("DIAGNOSIS_MAX_TOKENS", 200),
		DefaultTemperature:  getEnvAsFloat("DIAGNOSIS_TEMPERATURE", 0.7),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),

		HistoryLimit:  getEnvAsInt("SESSION_HISTORY_LIMIT", 10),
		ContextWindow: getEnvAsInt("SESSION_CONTEXT_WINDOW", 5),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
