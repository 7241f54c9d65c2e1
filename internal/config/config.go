package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingAPIKey       = errors.New("GEMINI_API_KEY environment variable is required")
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
)

var supportedReportFormats = map[string]bool{
	"json": true,
	"csv":  true,
	"xlsx": true,
}

// app config; built once in cmd/* and passed down explicitly
type Config struct {
	Provider string

	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	GeminiTemperature float64

	PhotosDir     string
	OutputDir     string
	ReportFormats []string
	TaxonomyFile  string
	FewShotDir    string

	MaxImagesPerFolder int
	MaxImageBytes      int64
	MaxRequestBytes    int64 // inline (base64) bytes of all images in one provider request
	Concurrency        int
	RequestTimeout     time.Duration
	RetryMaxAttempts   int

	HistoryDriver string
	HistoryDSN    string

	LogLevel  string
	LogFormat string

	Port           string
	BatchSchedule  string
	ResultCacheTTL time.Duration
	RedisAddr      string // shared result cache; empty keeps results in memory
	JWTSecret      string // empty leaves /api/v1 unauthenticated
}

// LoadConfig reads an optional .env file and then the process environment
func LoadConfig() (*Config, error) {
	// a missing .env is fine, real environment variables are enough
	_ = godotenv.Load()

	config := FromEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FromEnv reads configuration from environment variables without validating it
func FromEnv() *Config {
	return &Config{
		Provider: getEnvOrDefault("AI_PROVIDER", "gemini"),

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		GeminiTemperature: getEnvFloat("GEMINI_TEMPERATURE", 0.2),

		PhotosDir:     getEnvOrDefault("PHOTOS_DIR", "studio_photos"),
		OutputDir:     getEnvOrDefault("OUTPUT_DIR", "."),
		ReportFormats: splitList(getEnvOrDefault("REPORT_FORMATS", "json,csv")),
		TaxonomyFile:  os.Getenv("TAXONOMY_FILE"),
		FewShotDir:    os.Getenv("FEW_SHOT_DIR"),

		MaxImagesPerFolder: getEnvInt("MAX_IMAGES_PER_FOLDER", 10),
		MaxImageBytes:      int64(getEnvInt("MAX_IMAGE_BYTES", 7<<20)),
		MaxRequestBytes:    int64(getEnvInt("MAX_REQUEST_BYTES", 18<<20)),
		Concurrency:        getEnvInt("CONCURRENCY", 1),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		RetryMaxAttempts:   getEnvInt("RETRY_MAX_ATTEMPTS", 3),

		HistoryDriver: getEnvOrDefault("HISTORY_DRIVER", "sqlite"),
		HistoryDSN:    os.Getenv("HISTORY_DSN"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "console"),

		Port:           getEnvOrDefault("PORT", "8080"),
		BatchSchedule:  os.Getenv("BATCH_SCHEDULE"),
		ResultCacheTTL: getEnvDuration("RESULT_CACHE_TTL", 15*time.Minute),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
	}
}

func (c *Config) Validate() error {
	if c.Provider != "gemini" {
		return fmt.Errorf("%w: %s. Currently supported: gemini", ErrUnsupportedProvider, c.Provider)
	}
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.MaxImagesPerFolder <= 0 {
		return fmt.Errorf("MAX_IMAGES_PER_FOLDER must be positive, got %d", c.MaxImagesPerFolder)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive, got %d", c.MaxImageBytes)
	}
	if c.MaxRequestBytes <= 0 {
		return fmt.Errorf("MAX_REQUEST_BYTES must be positive, got %d", c.MaxRequestBytes)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("CONCURRENCY must be positive, got %d", c.Concurrency)
	}
	if len(c.ReportFormats) == 0 {
		return errors.New("REPORT_FORMATS must name at least one format")
	}
	for _, format := range c.ReportFormats {
		if !supportedReportFormats[format] {
			return fmt.Errorf("unsupported report format %q (json, csv, xlsx)", format)
		}
	}
	switch c.HistoryDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported HISTORY_DRIVER %q (sqlite, postgres)", c.HistoryDriver)
	}
	return nil
}

// HistoryEnabled reports whether results should be written to the history store
func (c *Config) HistoryEnabled() bool {
	return c.HistoryDSN != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
