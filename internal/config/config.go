package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the main toolpilot configuration
type Config struct {
	// Model provider
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Run history
	History HistoryConfig `json:"history" mapstructure:"history"`

	// Confirmation of destructive steps
	Confirm ConfirmConfig `json:"confirm" mapstructure:"confirm"`

	// Per-agent tool policies
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ProviderConfig selects the model provider
type ProviderConfig struct {
	Name           string  `json:"name" mapstructure:"name"` // groq, openai, anthropic, gemini
	Model          string  `json:"model" mapstructure:"model"`
	APIKey         string  `json:"api_key" mapstructure:"api_key"`
	BaseURL        string  `json:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int     `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	Temperature    float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens      int     `json:"max_tokens" mapstructure:"max_tokens"`
}

// Timeout returns the model request timeout
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
	AuditFile string `json:"audit_file" mapstructure:"audit_file"`
}

// HistoryConfig holds run history configuration
type HistoryConfig struct {
	Enabled      bool   `json:"enabled" mapstructure:"enabled"`
	Path         string `json:"path" mapstructure:"path"`
	ContextTurns int    `json:"context_turns" mapstructure:"context_turns"`
}

// ConfirmConfig holds confirmation settings
type ConfirmConfig struct {
	// AutoApprove skips the prompt for destructive steps, like --yes
	AutoApprove bool `json:"auto_approve" mapstructure:"auto_approve"`
}

// ToolsConfig holds the tool policy of each agent
type ToolsConfig struct {
	Git  ToolPolicyConfig `json:"git" mapstructure:"git"`
	File ToolPolicyConfig `json:"file" mapstructure:"file"`
}

// ToolPolicyConfig defines tool access policies
type ToolPolicyConfig struct {
	Allow []string `json:"allow" mapstructure:"allow"`
	Deny  []string `json:"deny" mapstructure:"deny"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:           "groq",
			TimeoutSeconds: 60,
			Temperature:    0,
			MaxTokens:      1024,
		},
		Logging: LoggingConfig{
			Level:     "warn",
			MaxSize:   10,
			MaxAge:    7,
			Compress:  false,
			Redaction: true,
		},
		History: HistoryConfig{
			Enabled:      true,
			ContextTurns: 3,
		},
		Confirm: ConfirmConfig{
			AutoApprove: false,
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config with the API key masked
func (c *Config) String() string {
	masked := *c
	if masked.Provider.APIKey != "" {
		masked.Provider.APIKey = "***"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if errs := NewValidator().ValidateConfig(c); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errs[0])
	}
	return nil
}
