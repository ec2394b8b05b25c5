package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const DefaultBaseURL = "https://api.deadlock-api.com"

// ConfigurationError is fatal at startup.
type ConfigurationError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

type Config struct {
	BaseURL    *url.URL
	DBPath     string
	ServerPort string
	LogLevel   string
	Panels     []PanelDefinition
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	rawBase := getEnv("DEADLOCK_API_BASE", DefaultBaseURL)
	baseURL, err := ParseBaseURL(rawBase)
	if err != nil {
		return nil, err
	}

	panels := DefaultPanels()
	if path := getEnv("PANELS_FILE", ""); path != "" {
		panels, err = LoadPanels(path)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		BaseURL:    baseURL,
		DBPath:     getEnv("DB_PATH", "deadlock.db"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Panels:     panels,
	}

	logger.Info().
		Str("base_url", cfg.BaseURL.String()).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("panels", len(cfg.Panels)).
		Msg("configuration loaded")

	return cfg, nil
}

// ParseBaseURL accepts an absolute http(s) URL with a host.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, &ConfigurationError{Key: "DEADLOCK_API_BASE", Value: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ConfigurationError{Key: "DEADLOCK_API_BASE", Value: raw, Err: fmt.Errorf("scheme must be http or https")}
	}
	if u.Host == "" {
		return nil, &ConfigurationError{Key: "DEADLOCK_API_BASE", Value: raw, Err: fmt.Errorf("missing host")}
	}
	return u, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
