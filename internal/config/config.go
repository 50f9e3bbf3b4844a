package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Readings sources understood by the gateway
const (
	SourceDemo   = "demo"
	SourceSQLite = "sqlite"
)

// AppConfig holds all configuration for the gateway
type AppConfig struct {
	Server   ServerSettings   `yaml:"server"`
	Gemini   GeminiSettings   `yaml:"gemini"`
	Readings ReadingsSettings `yaml:"readings"`
	Logging  LoggingConfig    `yaml:"logging"`
}

// ServerSettings contains HTTP server configuration
type ServerSettings struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// GeminiSettings contains the generative provider settings
type GeminiSettings struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	// Timeout bounds a single upstream call. Zero waits indefinitely.
	Timeout time.Duration `yaml:"timeout"`
	// StrictSchema downgrades replies that do not match the result schema
	StrictSchema bool `yaml:"strict_schema"`
}

// ReadingsSettings selects where /api/latest and /api/history read from
type ReadingsSettings struct {
	Source       string `yaml:"source"`
	DBPath       string `yaml:"db_path"`
	HistoryHours int    `yaml:"history_hours"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadAppConfig loads configuration from a YAML file.
// An empty path skips the file and uses defaults plus environment.
func LoadAppConfig(path string) (*AppConfig, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var config AppConfig
	if path != "" {
		yamlData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(yamlData, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.ApplyDefaults()
	if err := config.OverrideFromEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// ApplyDefaults sets default values for any unset fields
func (ac *AppConfig) ApplyDefaults() {
	if ac.Server.Port == 0 {
		ac.Server.Port = 3000
	}
	if ac.Server.Host == "" {
		ac.Server.Host = "0.0.0.0"
	}
	if ac.Server.ReadTimeout == 0 {
		ac.Server.ReadTimeout = 30 * time.Second
	}
	if ac.Server.WriteTimeout == 0 {
		// Gemini replies can take a while
		ac.Server.WriteTimeout = 120 * time.Second
	}
	if ac.Gemini.Model == "" {
		ac.Gemini.Model = "gemini-2.5-flash"
	}
	if ac.Readings.Source == "" {
		ac.Readings.Source = SourceDemo
	}
	if ac.Readings.DBPath == "" {
		ac.Readings.DBPath = "sensor_data.db"
	}
	if ac.Readings.HistoryHours == 0 {
		ac.Readings.HistoryHours = 24
	}
	if ac.Logging.Level == "" {
		ac.Logging.Level = "info"
	}
	if ac.Logging.Format == "" {
		ac.Logging.Format = "json"
	}
}

// OverrideFromEnv overrides config values from environment variables
func (ac *AppConfig) OverrideFromEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		ac.Server.Port = port
	}
	if v := os.Getenv("HOST"); v != "" {
		ac.Server.Host = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		ac.Gemini.APIKey = v
	}
	// GEMINI_API_KEY wins when both are set
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		ac.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		ac.Gemini.Model = v
	}
	if v := os.Getenv("READINGS_SOURCE"); v != "" {
		ac.Readings.Source = v
	}
	if v := os.Getenv("READINGS_DB_PATH"); v != "" {
		ac.Readings.DBPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		ac.Logging.Level = v
	}
	return nil
}

// Validate checks if the configuration is valid.
// A missing API key is not an error; it surfaces per request instead.
func (ac *AppConfig) Validate() error {
	if ac.Server.Port < 1 || ac.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if strings.TrimSpace(ac.Gemini.Model) == "" {
		return fmt.Errorf("gemini model is required")
	}
	if ac.Gemini.Timeout < 0 {
		return fmt.Errorf("gemini timeout must not be negative")
	}
	switch ac.Readings.Source {
	case SourceDemo:
	case SourceSQLite:
		if ac.Readings.DBPath == "" {
			return fmt.Errorf("readings db_path is required for the sqlite source")
		}
	default:
		return fmt.Errorf("unknown readings source %q", ac.Readings.Source)
	}
	if ac.Readings.HistoryHours < 1 {
		return fmt.Errorf("history hours must be at least 1")
	}
	switch ac.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console")
	}
	return nil
}

// HasAPIKey reports whether a provider credential is configured
func (ac *AppConfig) HasAPIKey() bool {
	return ac.Gemini.APIKey != ""
}

// Addr returns the listen address
func (ac *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", ac.Server.Host, ac.Server.Port)
}

// String returns a safe string representation (hides the API key)
func (ac *AppConfig) String() string {
	return fmt.Sprintf("AppConfig{Server: %+v, Gemini: [Model=%s, Key=%s, StrictSchema=%t], Readings: %+v, Logging: %+v}",
		ac.Server,
		ac.Gemini.Model,
		maskToken(ac.Gemini.APIKey),
		ac.Gemini.StrictSchema,
		ac.Readings,
		ac.Logging,
	)
}

// maskToken masks all but first 4 characters of a token
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
