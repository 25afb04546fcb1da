package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ConsignmentExtraction/pkg/gemini"
)

const (
	TransportREST = "rest"
	TransportSDK  = "sdk"
)

// Config holds the application configuration
type Config struct {
	Port string

	// GeminiAPIKey is the fallback key; a request may bring its own
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	Transport     string
	Timeout       time.Duration
	MaxImageBytes int64

	Database DatabaseConfig
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// LoadConfig loads the application configuration from a .env file, if present, and the environment
func LoadConfig(logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}

	// It's okay if the .env file doesn't exist
	if err := godotenv.Load(); err != nil {
		logger.Info("config.dotenv", "loaded", false)
	} else {
		logger.Info("config.dotenv", "loaded", true)
	}

	transport := strings.ToLower(getEnv("GEMINI_TRANSPORT", TransportREST))
	if transport != TransportREST && transport != TransportSDK {
		logger.Warn("config.unknown_transport", "value", transport, "using", TransportREST)
		transport = TransportREST
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnv("GEMINI_MODEL", gemini.DefaultModel),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", gemini.DefaultBaseURL),
		Transport:     transport,
		Timeout:       getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		MaxImageBytes: int64(getEnvAsInt("MAX_IMAGE_MB", 10)) << 20,
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "consignment_extraction"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}
}

// NewGenerator builds the Gemini transport the configuration asks for
func (c *Config) NewGenerator(logger *slog.Logger) gemini.Generator {
	if c.Transport == TransportSDK {
		return gemini.NewSDKClient(c.GeminiModel, logger)
	}
	return gemini.NewRESTClient(c.GeminiBaseURL, c.GeminiModel, c.Timeout, logger)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
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
