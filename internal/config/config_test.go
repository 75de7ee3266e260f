package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "groq", cfg.Provider.Name)
	assert.Equal(t, 60*time.Second, cfg.Provider.Timeout())
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Redaction)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 3, cfg.History.ContextTurns)
	assert.False(t, cfg.Confirm.AutoApprove)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(cfg *Config) {}},
		{name: "valid groq key", mutate: func(cfg *Config) { cfg.Provider.APIKey = "gsk_abc" }},
		{
			name:    "unknown provider",
			mutate:  func(cfg *Config) { cfg.Provider.Name = "cohere" },
			wantErr: "invalid provider",
		},
		{
			name:    "malformed key",
			mutate:  func(cfg *Config) { cfg.Provider.APIKey = "nope" },
			wantErr: "gsk_",
		},
		{
			name: "custom endpoint accepts any key",
			mutate: func(cfg *Config) {
				cfg.Provider.Name = "openai"
				cfg.Provider.BaseURL = "http://localhost:11434/v1"
				cfg.Provider.APIKey = "ollama"
			},
		},
		{
			name:    "zero timeout",
			mutate:  func(cfg *Config) { cfg.Provider.TimeoutSeconds = 0 },
			wantErr: "timeout_seconds",
		},
		{
			name:    "negative context turns",
			mutate:  func(cfg *Config) { cfg.History.ContextTurns = -1 },
			wantErr: "context_turns",
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "trace" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigString_MasksKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider.APIKey = "gsk_secret"

	out := cfg.String()
	assert.NotContains(t, out, "gsk_secret")
	assert.Contains(t, out, `"api_key": "***"`)
	assert.Equal(t, "gsk_secret", cfg.Provider.APIKey, "original untouched")
}

func TestRequireAPIKey(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.RequireAPIKey()
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	cfg.Provider.APIKey = "gsk_x"
	assert.NoError(t, cfg.RequireAPIKey())
}
