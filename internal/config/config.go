package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr      string
	PublicBaseURL string
	CORSOrigins   []string

	LogLevel      slog.Level
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	DefaultDeck string
	CardsFile   string

	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration

	LLMProvider       string
	LLMModel          string
	LLMFallbackModels []string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	LLMTimeout        time.Duration
}

// InterpretEnabled reports whether an LLM provider is configured.
func (c Config) InterpretEnabled() bool {
	return c.LLMProvider != "none"
}

// Load reads the environment, after applying an optional .env file
// (ENV_FILE, default ".env"). Variables already set win over the file.
func Load() (Config, error) {
	if err := loadDotEnv(envOr("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	c := Config{
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		PublicBaseURL:     strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		CORSOrigins:       parseList(envOr("CORS_ALLOW_ORIGINS", "*")),
		LogFormat:         strings.ToLower(envOr("LOG_FORMAT", "json")),
		LogFile:           os.Getenv("LOG_FILE"),
		DefaultDeck:       envOr("DEFAULT_DECK", "classic"),
		CardsFile:         os.Getenv("CARDS_FILE"),
		TokenSecret:       os.Getenv("TOKEN_SECRET"),
		TokenIssuer:       envOr("TOKEN_ISSUER", "tarot-spread"),
		LLMProvider:       strings.ToLower(envOr("LLM_PROVIDER", "none")),
		LLMModel:          envOr("LLM_MODEL", "qwen/qwen3-4b:free"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: envOr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMFallbackModels: parseList(os.Getenv("LLM_FALLBACK_MODELS")),
	}

	var err error
	if c.LLMTimeout, err = durationEnv("LLM_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if c.TokenTTL, err = durationEnv("TOKEN_TTL", 0); err != nil {
		return Config{}, err
	}
	if c.LogMaxSizeMB, err = intEnv("LOG_MAX_SIZE_MB", 10); err != nil {
		return Config{}, err
	}
	if c.LogMaxBackups, err = intEnv("LOG_MAX_BACKUPS", 3); err != nil {
		return Config{}, err
	}
	if c.LogMaxAgeDays, err = intEnv("LOG_MAX_AGE_DAYS", 28); err != nil {
		return Config{}, err
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}

	switch c.LLMProvider {
	case "none":
	case "openrouter":
		if c.OpenRouterAPIKey == "" {
			return Config{}, fmt.Errorf("OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter")
		}
	default:
		return Config{}, fmt.Errorf("invalid LLM_PROVIDER %q", c.LLMProvider)
	}

	return c, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, m := range strings.Split(s, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
