package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	// CORS
	CORSAllowedOrigins []string

	// LLM provider (Groq speaks the OpenAI chat completions protocol)
	GroqAPIKey     string
	GroqBaseURL    string
	GroqModelID    string
	GeminiAPIKey   string
	GeminiModelID  string
	LLMMaxTokens   int
	LLMTemperature float64

	// Voice mode uses shorter replies
	VoiceMaxTokens int

	// Availability checks extract booking hours in this location
	SchedulingTimezone string

	// Sessions (client session id -> conversation id)
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	// Audit log writer
	AuditBuffer int

	// Rate limiting for the public chat surface
	ChatRatePerSecond float64
	ChatRateBurst     int

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Owner notifications for new booking requests
	OwnerEmail string
	OwnerName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		GroqAPIKey:     getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:    getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModelID:    getEnv("GROQ_MODEL_ID", "llama-3.3-70b-versatile"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),

		VoiceMaxTokens: getEnvAsInt("VOICE_MAX_TOKENS", 300),

		SchedulingTimezone: getEnv("SCHEDULING_TZ", "UTC"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		AuditBuffer: getEnvAsInt("AUDIT_BUFFER", 256),

		ChatRatePerSecond: getEnvAsFloat("CHAT_RATE_PER_SECOND", 1),
		ChatRateBurst:     getEnvAsInt("CHAT_RATE_BURST", 5),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Digital Twin"),

		OwnerEmail: getEnv("OWNER_EMAIL", ""),
		OwnerName:  getEnv("OWNER_NAME", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
