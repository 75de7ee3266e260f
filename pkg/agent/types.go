package agent

import (
	"time"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Message roles understood by every provider
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one text turn of the conversation sent to a provider
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDefinition is a function offered to the model
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// ToolCall is a function call returned by the model
type ToolCall struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ProviderConfig selects and configures an LLM provider
type ProviderConfig struct {
	Name        string        `json:"name"` // groq, openai, anthropic, gemini
	Model       string        `json:"model"`
	APIKey      string        `json:"-"`
	BaseURL     string        `json:"base_url,omitempty"`
	Timeout     time.Duration `json:"timeout"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Turn is a previous instruction and a summary of how it went
type Turn struct {
	Instruction string `json:"instruction"`
	Outcome     string `json:"outcome"`
}

// ProposalKind is what the model made of an instruction
type ProposalKind string

const (
	ProposalPlan               ProposalKind = "plan"
	ProposalNeedsClarification ProposalKind = "needs_clarification"
	ProposalUnsupported        ProposalKind = "unsupported"
)

// Proposal is the model's answer to an instruction. Calls are only set for
// ProposalPlan; Message carries the question or the reason otherwise.
type Proposal struct {
	Kind    ProposalKind                 `json:"kind"`
	Calls   []toolexecutor.CandidateCall `json:"calls,omitempty"`
	Message string                       `json:"message,omitempty"`
	Usage   *TokenUsage                  `json:"usage,omitempty"`
}
