// Package config loads the inquira service configuration from YAML
// files with ${VAR} environment expansion. Configuration is loaded once
// at startup into an immutable struct and handed to constructors.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inquira/inquira/internal/domain"
)

// Config holds the inquira API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Providers   ProvidersConfig   `yaml:"providers"`
	QA          QAConfig          `yaml:"qa"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// VectorStoreConfig holds Redis connection settings for the vector store.
type VectorStoreConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	AlephAlpha ProviderConfig `yaml:"aleph-alpha"`
	OpenAI     ProviderConfig `yaml:"openai"`
	GPT4All    ProviderConfig `yaml:"gpt4all"`
	Cohere     ProviderConfig `yaml:"cohere"`
	Ollama     ProviderConfig `yaml:"ollama"`
}

// ProviderConfig holds a single provider's settings. Model names left
// empty fall back to per-provider defaults in the provider packages.
type ProviderConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

// QAConfig holds question answering settings.
type QAConfig struct {
	MaxTokens          int `yaml:"max_tokens"`
	SummaryConcurrency int `yaml:"summary_concurrency"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: per env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := filepath.Join("config", fmt.Sprintf("%s.yaml", env))

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Provider round-trips (summarize fan-out, QA fallback) can be slow.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.VectorStore.KeyPrefix == "" {
		c.VectorStore.KeyPrefix = "inquira:"
	}
	if c.VectorStore.ReadinessTimeout <= 0 {
		c.VectorStore.ReadinessTimeout = 10
	}
	if c.QA.MaxTokens <= 0 {
		c.QA.MaxTokens = 256
	}
	if c.QA.SummaryConcurrency <= 0 {
		c.QA.SummaryConcurrency = 4
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.VectorStore.Addrs) == 0 {
		return fmt.Errorf("vector_store.addrs is required")
	}
	if !strings.HasSuffix(c.VectorStore.KeyPrefix, ":") {
		return fmt.Errorf("vector_store.key_prefix must end with ':', got %q", c.VectorStore.KeyPrefix)
	}
	return nil
}

// APIKeys returns the configured API key per provider, for credential
// fallback resolution.
func (c *Config) APIKeys() map[domain.Provider]string {
	return map[domain.Provider]string{
		domain.ProviderAlephAlpha: c.Providers.AlephAlpha.APIKey,
		domain.ProviderOpenAI:     c.Providers.OpenAI.APIKey,
		domain.ProviderCohere:     c.Providers.Cohere.APIKey,
	}
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
