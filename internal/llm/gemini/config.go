package gemini

import (
	"errors"
	"time"

	"github.com/RIDLEYsan/studio-classification-app/internal/config"
	"github.com/RIDLEYsan/studio-classification-app/internal/resilience"
)

// holds Gemini-specific configuration
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	APIVersion     string
	Temperature    float32
	RequestTimeout time.Duration
	Resilience     resilience.Config
}

// NewConfig derives the adapter configuration from the application config
func NewConfig(cfg *config.Config) (*Config, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}

	model := cfg.GeminiModel
	if model == "" {
		model = "gemini-2.0-flash"
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	policy := resilience.DefaultConfig()
	if cfg.RetryMaxAttempts > 0 {
		policy.RetryMaxAttempts = cfg.RetryMaxAttempts
	}

	return &Config{
		APIKey:         cfg.GeminiAPIKey,
		Model:          model,
		BaseURL:        cfg.GeminiBaseURL,
		Temperature:    float32(cfg.GeminiTemperature),
		RequestTimeout: timeout,
		Resilience:     policy,
	}, nil
}
