// Package config loads application configuration from a yaml file with
// environment variable overrides. Priority is env, then file, then defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrMissingApiKey    = errors.New("missing api key")
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrMissingBaseUrl   = errors.New("custom provider requires a base url")
	ErrInvalidDimension = errors.New("embedding dimension must be positive")
	ErrInvalidReserve   = errors.New("token reserves must be non-negative")
	ErrInvalidRetention = errors.New("retention must be positive")
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGoogle    = "google"
	ProviderCustom    = "custom"
)

// ProviderConfig describes one configured LLM provider. BaseUrl and the
// models fields only apply to openai-compatible custom endpoints.
type ProviderConfig struct {
	ApiKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	BaseUrl        string `mapstructure:"base_url"`
	ModelsEndpoint string `mapstructure:"models_endpoint"`
	ModelsPath     string `mapstructure:"models_path"`
}

type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"`
	ApiKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	Dimension int    `mapstructure:"dimension"`
}

type ChatConfig struct {
	SystemPrompt    string         `mapstructure:"system_prompt"`
	ResponseReserve int            `mapstructure:"response_reserve"`
	SystemReserve   int            `mapstructure:"system_reserve"`
	RecentFraction  float64        `mapstructure:"recent_fraction"`
	MinRecent       int            `mapstructure:"min_recent"`
	TokenLimits     map[string]int `mapstructure:"token_limits"`
}

type RetrievalConfig struct {
	MaxItems      int     `mapstructure:"max_items"`
	MinSimilarity float64 `mapstructure:"min_similarity"`
}

type SchedulerConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Retention       time.Duration `mapstructure:"retention"`
}

type Config struct {
	DataDir   string                    `mapstructure:"data_dir"`
	Address   string                    `mapstructure:"address"`
	Provider  string                    `mapstructure:"provider"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Embedding EmbeddingConfig           `mapstructure:"embedding"`
	Chat      ChatConfig                `mapstructure:"chat"`
	Retrieval RetrievalConfig           `mapstructure:"retrieval"`
	Scheduler SchedulerConfig           `mapstructure:"scheduler"`
	Postgres  string                    `mapstructure:"postgres"`
}

// Active returns the configuration of the active chat provider.
func (c *Config) Active() (ProviderConfig, error) {
	pc, ok := c.Providers[c.Provider]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("%w: %s", ErrUnknownProvider, c.Provider)
	}
	return pc, nil
}

func (c *Config) Validate() error {
	pc, err := c.Active()
	if err != nil {
		return err
	}

	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle:
		if pc.ApiKey == "" {
			return fmt.Errorf("%w: %s", ErrMissingApiKey, c.Provider)
		}
	case ProviderCustom:
		if pc.BaseUrl == "" {
			return ErrMissingBaseUrl
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, c.Provider)
	}

	if c.Embedding.Dimension <= 0 {
		return ErrInvalidDimension
	}

	if c.Chat.ResponseReserve < 0 || c.Chat.SystemReserve < 0 {
		return ErrInvalidReserve
	}

	if c.Scheduler.Retention <= 0 {
		return ErrInvalidRetention
	}

	return nil
}

// Load reads configuration from dir/config.yaml if present, applies
// SOURCERER_* environment overrides, and fills in defaults.
func Load(dir string) (*Config, error) {
	v := viper.New()

	setDefaults(v, dir)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("SOURCERER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	bindApiKeyEnv(cfg)

	return cfg, nil
}

// DefaultDir is the per-user data and config directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sourcerer"
	}
	return filepath.Join(home, ".sourcerer")
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("data_dir", dir)
	v.SetDefault("address", ":8080")
	v.SetDefault("provider", ProviderOpenAI)

	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("providers.google.model", "gemini-2.0-flash")
	v.SetDefault("providers.custom.models_path", "data[].id")

	v.SetDefault("embedding.provider", ProviderOpenAI)
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimension", 1536)

	v.SetDefault("chat.response_reserve", 1000)
	v.SetDefault("chat.system_reserve", 500)
	v.SetDefault("chat.recent_fraction", 0.7)
	v.SetDefault("chat.min_recent", 4)

	v.SetDefault("retrieval.max_items", 5)
	v.SetDefault("retrieval.min_similarity", 0.3)

	v.SetDefault("scheduler.refresh_interval", 15*time.Minute)
	v.SetDefault("scheduler.cleanup_interval", 24*time.Hour)
	v.SetDefault("scheduler.retention", 90*24*time.Hour)
}

// bindApiKeyEnv honors the conventional provider env vars so users do not
// have to put keys in the config file.
func bindApiKeyEnv(cfg *Config) {
	envs := map[string]string{
		ProviderOpenAI:    "OPENAI_API_KEY",
		ProviderAnthropic: "ANTHROPIC_API_KEY",
		ProviderGoogle:    "GOOGLE_API_KEY",
		ProviderCustom:    "CUSTOM_API_KEY",
	}

	for provider, env := range envs {
		pc := cfg.Providers[provider]
		if pc.ApiKey == "" {
			if key := os.Getenv(env); key != "" {
				pc.ApiKey = key
				if cfg.Providers == nil {
					cfg.Providers = map[string]ProviderConfig{}
				}
				cfg.Providers[provider] = pc
			}
		}
	}
}
