package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the interview server.
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Gemini API configuration
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiModel    string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	GeminiTTSModel string `envconfig:"GEMINI_TTS_MODEL" default:"gemini-2.5-flash-preview-tts"`

	// Speech-to-Text configuration
	STTLanguage string `envconfig:"STT_LANGUAGE" default:"en-US"`

	// MongoDB configuration. When MONGO_URI is empty, reports are kept
	// in memory only and users live in the in-memory store.
	MongoURI      string `envconfig:"MONGO_URI" default:""`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"remasto"`

	// Auth configuration
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Limits
	MaxRecordingBytes int `envconfig:"MAX_RECORDING_BYTES" default:"10485760"` // 10 MiB

	// Observability configuration
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug, info, warn, error
}

// Load reads configuration from environment variables. It first attempts
// to load a .env file if one exists, then reads the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.MaxRecordingBytes <= 0 {
		return nil, fmt.Errorf("MAX_RECORDING_BYTES must be positive, got %d", cfg.MaxRecordingBytes)
	}

	return &cfg, nil
}
