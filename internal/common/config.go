package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	OCR     OCRConfig
	AI      AIConfig
	Premium PremiumConfig
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Languages string // tesseract language list, e.g. "ara+eng"
	DPI       int    // rasterization DPI for PDF pages
	Timeout   time.Duration
}

// AIConfig holds generative-AI structuring configuration
type AIConfig struct {
	APIKey          string
	Models          []string // fallback chain, tried in order
	Temperature     float32
	MaxOutputTokens int32
	Cooldown        time.Duration // breaker cooldown after a rate limit
	MinCallInterval time.Duration // throttle between outbound calls
	Timeout         time.Duration
}

// PremiumConfig holds the premium cloud parser configuration
type PremiumConfig struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	MaxPolls     int
	Timeout      time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Languages: getEnv("OCR_LANGUAGES", "ara+eng"),
			DPI:       getEnvAsInt("OCR_PDF_DPI", 300),
			Timeout:   getEnvAsDuration("OCR_TIMEOUT", 2*time.Minute),
		},
		AI: AIConfig{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			Models:          []string{getEnv("GEMINI_MODEL", "gemini-2.0-flash"), getEnv("GEMINI_FALLBACK_MODEL", "gemini-2.0-flash-lite")},
			Temperature:     getEnvAsFloat32("GEMINI_TEMPERATURE", 0.1),
			MaxOutputTokens: int32(getEnvAsInt("GEMINI_MAX_OUTPUT_TOKENS", 1000)),
			Cooldown:        getEnvAsDuration("GEMINI_BREAKER_COOLDOWN", 60*time.Second),
			MinCallInterval: getEnvAsDuration("GEMINI_MIN_CALL_INTERVAL", time.Second),
			Timeout:         getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Premium: PremiumConfig{
			APIKey:       getEnv("LLAMA_CLOUD_API_KEY", ""),
			BaseURL:      getEnv("LLAMA_CLOUD_BASE_URL", "https://api.cloud.llamaindex.ai"),
			PollInterval: getEnvAsDuration("LLAMA_CLOUD_POLL_INTERVAL", 2*time.Second),
			MaxPolls:     getEnvAsInt("LLAMA_CLOUD_MAX_POLLS", 30),
			Timeout:      getEnvAsDuration("LLAMA_CLOUD_TIMEOUT", 90*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
