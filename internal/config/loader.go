package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix prefixes every environment override, e.g. TOOLPILOT_PROVIDER_NAME
const EnvPrefix = "TOOLPILOT"

// APIKeyOverrideEnv takes precedence over the provider's own key variable
const APIKeyOverrideEnv = "TOOLPILOT_API_KEY"

// providerKeyEnv maps provider names to their conventional key variable
var providerKeyEnv = map[string]string{
	"groq":      "GROQ_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// ErrMissingAPIKey is returned when no credential is configured for the provider
var ErrMissingAPIKey = errors.New("missing API key")

// ErrConfigNotFound is returned when an explicitly named config file is missing
var ErrConfigNotFound = errors.New("config file not found")

// Loader handles configuration loading
type Loader struct {
	configPath string
	envFile    string
}

// NewLoader creates a new config loader. The .env file in the working
// directory is read unless WithEnvFile says otherwise.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envFile:    ".env",
	}
}

// WithEnvFile sets the dotenv file to read; an empty path disables it
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Load loads the configuration from file and environment
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	configPath := l.GetConfigPath()

	v := viper.New()
	setDefaults(v, DefaultConfig())

	// Read environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		_, err := os.Stat(configPath)
		switch {
		case err == nil:
			v.SetConfigFile(configPath)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		case os.IsNotExist(err) && l.configPath == "":
			// the default file is optional
		case os.IsNotExist(err):
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		default:
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Provider.Name = strings.ToLower(strings.TrimSpace(cfg.Provider.Name))

	// Set data directory if not specified
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".toolpilot")
	}

	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(cfg.DataDir, "history.db")
	}
	if cfg.Logging.AuditFile == "" {
		cfg.Logging.AuditFile = filepath.Join(cfg.DataDir, "audit.log")
	}

	if key := APIKeyFromEnv(cfg.Provider.Name); key != "" {
		cfg.Provider.APIKey = key
	}

	return cfg, nil
}

func (l *Loader) loadEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if _, err := os.Stat(l.envFile); os.IsNotExist(err) {
		return nil
	}
	// variables already set in the environment win
	if err := gotenv.Load(l.envFile); err != nil {
		return fmt.Errorf("failed to read %s: %w", l.envFile, err)
	}
	return nil
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("provider.name", cfg.Provider.Name)
	v.SetDefault("provider.model", cfg.Provider.Model)
	v.SetDefault("provider.api_key", cfg.Provider.APIKey)
	v.SetDefault("provider.base_url", cfg.Provider.BaseURL)
	v.SetDefault("provider.timeout_seconds", cfg.Provider.TimeoutSeconds)
	v.SetDefault("provider.temperature", cfg.Provider.Temperature)
	v.SetDefault("provider.max_tokens", cfg.Provider.MaxTokens)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)
	v.SetDefault("logging.compress", cfg.Logging.Compress)
	v.SetDefault("logging.redaction", cfg.Logging.Redaction)
	v.SetDefault("logging.audit_file", cfg.Logging.AuditFile)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.path", cfg.History.Path)
	v.SetDefault("history.context_turns", cfg.History.ContextTurns)

	v.SetDefault("confirm.auto_approve", cfg.Confirm.AutoApprove)

	v.SetDefault("tools.git.allow", cfg.Tools.Git.Allow)
	v.SetDefault("tools.git.deny", cfg.Tools.Git.Deny)
	v.SetDefault("tools.file.allow", cfg.Tools.File.Allow)
	v.SetDefault("tools.file.deny", cfg.Tools.File.Deny)

	v.SetDefault("data_dir", cfg.DataDir)
}

// APIKeyFromEnv returns the credential for provider from the environment,
// honouring the TOOLPILOT_API_KEY override
func APIKeyFromEnv(provider string) string {
	if key := strings.TrimSpace(os.Getenv(APIKeyOverrideEnv)); key != "" {
		return key
	}
	if name, ok := providerKeyEnv[provider]; ok {
		return strings.TrimSpace(os.Getenv(name))
	}
	return ""
}

// APIKeyEnvName returns the conventional key variable for provider
func APIKeyEnvName(provider string) string {
	if name, ok := providerKeyEnv[provider]; ok {
		return name
	}
	return APIKeyOverrideEnv
}

// RequireAPIKey returns ErrMissingAPIKey naming the variable to set
func (c *Config) RequireAPIKey() error {
	if c.Provider.APIKey == "" {
		return fmt.Errorf("%w for provider %s: set %s or %s", ErrMissingAPIKey, c.Provider.Name, APIKeyEnvName(c.Provider.Name), APIKeyOverrideEnv)
	}
	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".toolpilot", "config.json")
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
