package infra

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	LogLevel    string
	Port        string
	DatabaseURL string

	OpenAIAPIKeys []string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAIOrg     string
	OpenAITimeout time.Duration

	QueueCapacity  int
	MaxInputLength int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	BackoffGrowth  float64
	DrainTimeout   time.Duration
	ResultTTL      time.Duration

	FeedbackDir          string
	FeedbackMaxFileBytes int64

	GeoIPDBPath        string
	CORSAllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	TrustProxyHeaders bool
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	backoffBase := getEnvFloat("BACKOFF_BASE_SECONDS", 5)
	backoffMax := getEnvFloat("BACKOFF_MAX_SECONDS", 60)
	for key, v := range map[string]float64{
		"BACKOFF_BASE_SECONDS": backoffBase,
		"BACKOFF_MAX_SECONDS":  backoffMax,
		"BACKOFF_GROWTH":       getEnvFloat("BACKOFF_GROWTH", 1.5),
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%s must be a finite number, got %v", key, v)
		}
	}

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		Port:                 getEnv("PORT", "8080"),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		OpenAIAPIKeys:        getEnvList("OPENAI_API_KEYS"),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:            os.Getenv("OPENAI_ORG"),
		OpenAITimeout:        time.Second * time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 0)),
		QueueCapacity:        getEnvInt("QUEUE_CAPACITY", 10),
		MaxInputLength:       getEnvInt("MAX_INPUT_LENGTH", 5000),
		BackoffBase:          seconds(backoffBase),
		BackoffMax:           seconds(backoffMax),
		BackoffGrowth:        getEnvFloat("BACKOFF_GROWTH", 1.5),
		DrainTimeout:         time.Second * time.Duration(getEnvInt("DRAIN_TIMEOUT_SECONDS", 5)),
		ResultTTL:            time.Minute * time.Duration(getEnvInt("RESULT_TTL_MINUTES", 30)),
		FeedbackDir:          getEnv("FEEDBACK_DIR", "data/feedback"),
		FeedbackMaxFileBytes: int64(getEnvInt("FEEDBACK_MAX_FILE_BYTES", 10*1024*1024)),
		GeoIPDBPath:          os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS"),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustProxyHeaders:    getEnvBool("TRUST_PROXY_HEADERS", false),
	}
	if len(cfg.OpenAIAPIKeys) == 0 {
		cfg.OpenAIAPIKeys = getEnvList("OPENAI_API_KEY")
	}

	if cfg.QueueCapacity < 1 {
		return nil, fmt.Errorf("QUEUE_CAPACITY must be positive, got %d", cfg.QueueCapacity)
	}
	if cfg.MaxInputLength < 1 {
		return nil, fmt.Errorf("MAX_INPUT_LENGTH must be positive, got %d", cfg.MaxInputLength)
	}
	if cfg.BackoffBase <= 0 || cfg.BackoffMax <= 0 {
		return nil, fmt.Errorf("BACKOFF_BASE_SECONDS and BACKOFF_MAX_SECONDS must be positive")
	}
	if cfg.BackoffBase > cfg.BackoffMax {
		return nil, fmt.Errorf("BACKOFF_BASE_SECONDS (%s) exceeds BACKOFF_MAX_SECONDS (%s)", cfg.BackoffBase, cfg.BackoffMax)
	}
	if cfg.BackoffGrowth < 1 {
		return nil, fmt.Errorf("BACKOFF_GROWTH must be at least 1, got %v", cfg.BackoffGrowth)
	}
	if cfg.OpenAITimeout < 0 {
		return nil, fmt.Errorf("OPENAI_TIMEOUT_SECONDS must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blank entries.
func getEnvList(key string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
