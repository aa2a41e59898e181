// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for eml-studio.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// defaultMaxBodyBytes caps request bodies at 5 MB.
const defaultMaxBodyBytes = 5 << 20

// Config holds the complete application configuration.
type Config struct {
	// Provider selects the delivery backend: "stdout", "ses", "graph", or
	// empty for auto-detection.
	Provider string        `yaml:"provider" env:"PROVIDER"`
	HTTP     HTTPConfig    `yaml:"http"`
	Store    StoreConfig   `yaml:"store"`
	AI       AIConfig      `yaml:"ai"`
	SES      SESConfig     `yaml:"ses"`
	Graph    GraphConfig   `yaml:"graph"`
	TLS      TLSConfig     `yaml:"tls"`
	Logging  LoggingConfig `yaml:"logging"`
}

// HTTPConfig holds HTTP API configuration.
type HTTPConfig struct {
	Listen          string        `yaml:"listen" env:"HTTP_LISTEN"`
	Username        string        `yaml:"username" env:"HTTP_USERNAME"`
	Password        string        `yaml:"password" env:"HTTP_PASSWORD"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" env:"HTTP_MAX_BODY_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
}

// StoreConfig holds template store configuration.
type StoreConfig struct {
	Path string `yaml:"path" env:"STORE_PATH"`
}

// AIConfig holds rewrite service configuration.
type AIConfig struct {
	// Provider is "gemini" or "openai". Empty picks whichever has a key.
	Provider     string `yaml:"provider" env:"AI_PROVIDER"`
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	OpenAIAPIKey string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	Model        string `yaml:"model" env:"AI_MODEL"`
	// BaseURL overrides the selected backend's API endpoint.
	BaseURL string `yaml:"base_url" env:"AI_BASE_URL"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region" env:"SES_REGION"`
	AccessKeyID     string `yaml:"access_key_id" env:"SES_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SES_SECRET_ACCESS_KEY"`
	Sender          string `yaml:"sender" env:"SES_SENDER"`
}

// GraphConfig holds Microsoft Graph API configuration.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id" env:"GRAPH_TENANT_ID"`
	ClientID     string `yaml:"client_id" env:"GRAPH_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GRAPH_CLIENT_SECRET"`
	Sender       string `yaml:"sender" env:"GRAPH_SENDER"`
}

// TLSConfig holds TLS settings for the HTTP API.
type TLSConfig struct {
	Enabled  bool     `yaml:"enabled" env:"TLS_ENABLED"`
	CertFile string   `yaml:"cert_file" env:"TLS_CERT_FILE"`
	KeyFile  string   `yaml:"key_file" env:"TLS_KEY_FILE"`
	Hosts    []string `yaml:"hosts" env:"TLS_HOSTS" envSeparator:","`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and variables that are already set
// win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GraphConfigured returns true if all four Graph API credentials are set.
func (c *Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" &&
		c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != "" &&
		c.Graph.Sender != ""
}

// SESConfigured returns true if the SES region and sender are set. Static
// credentials are optional; the default AWS chain applies without them.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// AuthEnabled returns true if both HTTP username and password are set.
func (c *Config) AuthEnabled() bool {
	return c.HTTP.Username != "" && c.HTTP.Password != ""
}

// AIProvider resolves which rewrite backend to use. An explicit provider wins;
// otherwise Gemini is preferred when both keys are present. It returns an
// empty string when no backend is configured.
func (c *Config) AIProvider() string {
	if c.AI.Provider != "" {
		return c.AI.Provider
	}
	switch {
	case c.AI.GeminiAPIKey != "":
		return "gemini"
	case c.AI.OpenAIAPIKey != "":
		return "openai"
	}
	return ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.HTTP.Listen = ":8080"
	c.HTTP.MaxBodyBytes = defaultMaxBodyBytes
	c.HTTP.ShutdownTimeout = 10 * time.Second
	c.Store.Path = "eml-studio.db"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Unset or empty variables leave existing values alone.
func (c *Config) applyEnvVars() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	c.Provider = strings.ToLower(c.Provider)
	c.AI.Provider = strings.ToLower(c.AI.Provider)
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	return nil
}
