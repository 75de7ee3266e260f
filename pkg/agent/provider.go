package agent

import (
	"context"
	"fmt"
)

// Provider names
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint
const GroqBaseURL = "https://api.groq.com/openai/v1"

var defaultModels = map[string]string{
	ProviderGroq:      "llama-3.3-70b-versatile",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-sonnet-20241022",
	ProviderGemini:    "gemini-2.0-flash",
}

// LLMProvider is an interface for LLM API providers
type LLMProvider interface {
	// Call makes an LLM API call
	Call(ctx context.Context, request LLMRequest) (*LLMResponse, error)

	// Provider returns the provider name
	Provider() string
}

// LLMRequest contains the request parameters for LLM call
type LLMRequest struct {
	Model        string
	Messages     []Message
	Tools        []ToolDefinition
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
}

// LLMResponse contains the response from LLM
type LLMResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     *TokenUsage
}

// ProviderCreator creates LLM providers from configuration
type ProviderCreator interface {
	NewProvider(ctx context.Context, cfg ProviderConfig) (LLMProvider, error)
}

// ProviderFactory creates the built-in providers
type ProviderFactory struct{}

// NewProvider creates a new LLM provider based on cfg.Name
func (f *ProviderFactory) NewProvider(ctx context.Context, cfg ProviderConfig) (LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key for provider %s", cfg.Name)
	}

	switch cfg.Name {
	case ProviderGroq:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		return NewOpenAIProvider(ProviderGroq, cfg.APIKey, baseURL), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(ProviderOpenAI, cfg.APIKey, cfg.BaseURL), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, cfg.BaseURL), nil
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Name)
	}
}

// DefaultModel returns the model used for a provider when none is configured
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// SupportedProviders lists the provider names NewProvider accepts
func SupportedProviders() []string {
	return []string{ProviderGroq, ProviderOpenAI, ProviderAnthropic, ProviderGemini}
}
