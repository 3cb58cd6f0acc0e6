// Package config loads the nudge engine configuration from YAML with
// environment fallbacks for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Frequency modes accepted by Config.ReplyFrequency.
const (
	FrequencyRare     = "rare"
	FrequencyModerate = "moderate"
	FrequencyFrequent = "frequent"
)

// Config represents the application configuration
type Config struct {
	// Scheduling
	PollInterval       string `yaml:"poll_interval"`        // token, e.g. "10min"
	NoMessageThreshold string `yaml:"no_message_threshold"` // token, e.g. "30min"

	// Decision behaviour
	ReplyFrequency  string `yaml:"reply_frequency"` // rare, moderate, frequent
	EnableTimeCheck bool   `yaml:"enable_time_check"`

	// Population filter
	AdminOnly bool     `yaml:"admin_only"`
	AdminIDs  []string `yaml:"admin_ids"`

	// Fire one batch immediately after start, before the first timer tick.
	DebugTriggerOnStart bool `yaml:"debug_trigger_on_start"`

	History HistoryConfig `yaml:"history"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Redis   RedisConfig   `yaml:"redis"`
	Runtime RuntimeConfig `yaml:"runtime"`
}

// HistoryConfig controls context-window truncation of conversation history.
type HistoryConfig struct {
	// MaxExchangePairs is the maximum number of user/agent exchange pairs
	// kept for oracle calls. -1 disables truncation.
	MaxExchangePairs int `yaml:"max_exchange_pairs"`
	// TrimFromHead is the number of additional oldest pairs dropped when
	// truncation occurs.
	TrimFromHead int `yaml:"trim_from_head"`
}

// OracleConfig holds the text-generation backend configuration.
type OracleConfig struct {
	Provider       string  `yaml:"provider"`
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	// RequestsPerMinute caps oracle traffic across a batch. 0 = no limit.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// RedisConfig holds the conversation store connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RuntimeConfig holds runtime configuration
type RuntimeConfig struct {
	// MaxConcurrentSessions bounds per-session pipeline fan-out in a batch.
	MaxConcurrentSessions int `yaml:"max_concurrent_sessions"`
}

// DefaultConfig returns the built-in defaults. LoadConfig unmarshals the
// YAML file over this value, so absent keys keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:       "10min",
		NoMessageThreshold: "30min",
		ReplyFrequency:     FrequencyModerate,
		EnableTimeCheck:    true,
		History: HistoryConfig{
			MaxExchangePairs: -1,
			TrimFromHead:     1,
		},
		Oracle: OracleConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			Temperature:    0.7,
			MaxTokens:      512,
			TimeoutSeconds: 60,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "nudgekit:",
		},
		Runtime: RuntimeConfig{
			MaxConcurrentSessions: 4,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is not an
// error; the defaults are used as-is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills secrets from the environment when not set in the file.
func (c *Config) applyEnv() {
	if c.Oracle.APIKey == "" {
		c.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Redis.Password == "" {
		c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.ReplyFrequency {
	case FrequencyRare, FrequencyModerate, FrequencyFrequent:
	default:
		return fmt.Errorf("reply_frequency must be one of rare, moderate, frequent; got %q", c.ReplyFrequency)
	}

	if c.History.MaxExchangePairs < -1 {
		return fmt.Errorf("history.max_exchange_pairs must be -1 (unlimited) or >= 0")
	}
	if c.History.TrimFromHead < 0 {
		return fmt.Errorf("history.trim_from_head must be non-negative")
	}

	if c.AdminOnly && len(c.AdminIDs) == 0 {
		return fmt.Errorf("admin_only is set but admin_ids is empty; no session would qualify")
	}

	if c.Runtime.MaxConcurrentSessions <= 0 {
		return fmt.Errorf("runtime.max_concurrent_sessions must be positive")
	}

	return nil
}
