package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Supabase
	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabasePublishableKey string `env:"SUPABASE_PUBLISHABLE_KEY"`
	SupabaseJWTSecret      string `env:"SUPABASE_JWT_SECRET"`

	// Storage buckets
	OrderImagesBucket   string `env:"SUPABASE_ORDER_IMAGES_BUCKET" envDefault:"order-images"`
	SubmissionsBucket   string `env:"SUPABASE_SUBMISSIONS_BUCKET" envDefault:"orders-submission"`
	ProfileImagesBucket string `env:"SUPABASE_PROFILE_IMAGES_BUCKET" envDefault:"profile-images"`

	// Database
	DatabaseURL string `env:"DATABASE_URL"`

	// Event sink
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"marketplace-events"`

	// Orders
	OrderNumberStart  int64         `env:"ORDER_NUMBER_START" envDefault:"1000"`
	CountdownInterval time.Duration `env:"COUNTDOWN_INTERVAL" envDefault:"1s"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`

	// Assistant
	AssistantAPIURL string `env:"ASSISTANT_API_URL" envDefault:"https://openrouter.ai/api/v1"`
	AssistantAPIKey string `env:"ASSISTANT_API_KEY"`
	AssistantModel  string `env:"ASSISTANT_MODEL" envDefault:"mistralai/mistral-7b-instruct"`
	AssistantTitle  string `env:"ASSISTANT_TITLE" envDefault:"Influencer Hub Assistant"`
	ClassifierURL   string `env:"CLASSIFIER_URL"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.CountdownInterval <= 0 {
		return fmt.Errorf("COUNTDOWN_INTERVAL must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
