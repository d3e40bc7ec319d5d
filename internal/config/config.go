// Package config handles configuration loading and management for orchid.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/awalsh128/orchid/pkg/models"
)

// Config holds all configuration for orchid.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Bedrock   BedrockConfig   `mapstructure:"bedrock"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Approval  ApprovalConfig  `mapstructure:"approval"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// BedrockConfig holds AWS Bedrock transport settings.
type BedrockConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Profile string `mapstructure:"profile"`
}

// RoutingConfig holds routing strategy and threshold settings.
type RoutingConfig struct {
	// Strategy is rule, llm, or hybrid.
	Strategy string `mapstructure:"strategy"`
	// Threshold is the minimum rule confidence (0-100) for a match.
	Threshold int `mapstructure:"threshold"`
	// DefaultAgent handles input when no agent matches.
	DefaultAgent string `mapstructure:"default_agent"`
}

// ApprovalConfig holds tool approval settings.
type ApprovalConfig struct {
	// Mode is default (manual approval) or auto_edit.
	Mode string `mapstructure:"mode"`
}

// WorkflowConfig holds workflow execution settings.
type WorkflowConfig struct {
	// DefaultTimeout bounds runs whose definition sets no timeout.
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// LoggingConfig holds debug logging settings.
type LoggingConfig struct {
	Debug bool `mapstructure:"debug"`
}

// RouteStrategy returns the configured routing strategy as a typed value,
// falling back to hybrid for unknown names.
func (c RoutingConfig) RouteStrategy() models.RouteStrategy {
	s := models.RouteStrategy(c.Strategy)
	if !s.Valid() {
		return models.StrategyHybrid
	}
	return s
}

// QueueMode returns the configured approval mode as a typed value,
// falling back to the manual default for unknown names.
func (c ApprovalConfig) QueueMode() models.QueueMode {
	m := models.QueueMode(c.Mode)
	if !m.Valid() {
		return models.QueueModeDefault
	}
	return m
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.orchid.yaml in current directory or parent)
// 3. User config (~/.config/orchid/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("bedrock.region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("bedrock.enabled", cfg.Bedrock.Enabled)
	v.Set("bedrock.region", cfg.Bedrock.Region)
	v.Set("bedrock.profile", cfg.Bedrock.Profile)
	v.Set("routing.strategy", cfg.Routing.Strategy)
	v.Set("routing.threshold", cfg.Routing.Threshold)
	v.Set("routing.default_agent", cfg.Routing.DefaultAgent)
	v.Set("approval.mode", cfg.Approval.Mode)
	v.Set("workflow.default_timeout", cfg.Workflow.DefaultTimeout.String())
	v.Set("logging.debug", cfg.Logging.Debug)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("anthropic.max_tokens", 8192)

	v.SetDefault("bedrock.enabled", false)
	v.SetDefault("bedrock.region", "")
	v.SetDefault("bedrock.profile", "")

	v.SetDefault("routing.strategy", "hybrid")
	v.SetDefault("routing.threshold", 30)
	v.SetDefault("routing.default_agent", "")

	v.SetDefault("approval.mode", "default")

	v.SetDefault("workflow.default_timeout", "30m")

	v.SetDefault("logging.debug", false)
}

// getUserConfigDir returns the XDG config directory for orchid.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "orchid")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "orchid")
	}
	return filepath.Join(home, ".config", "orchid")
}

// findProjectConfig searches for .orchid.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".orchid.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 8192,
		},
		Routing: RoutingConfig{
			Strategy:  "hybrid",
			Threshold: 30,
		},
		Approval: ApprovalConfig{
			Mode: "default",
		},
		Workflow: WorkflowConfig{
			DefaultTimeout: 30 * time.Minute,
		},
	}
}
