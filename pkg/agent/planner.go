package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Control functions offered next to the registered tools
const (
	ClarifyTool = "request_clarification"
	DeclineTool = "decline_instruction"
)

// DefaultTimeout bounds one model request
const DefaultTimeout = 60 * time.Second

// ErrProvider wraps every provider failure other than a timeout
var ErrProvider = errors.New("model request failed")

// PlanProposer turns an instruction into a Proposal
type PlanProposer interface {
	ProposePlan(ctx context.Context, instruction string, tools []toolexecutor.ToolSpec, history []Turn) (Proposal, error)
}

// PlannerConfig configures a ModelPlanner
type PlannerConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	// Domain is the agent-specific part of the system prompt
	Domain string

	// WorkingDir is shown to the model so it can resolve relative paths
	WorkingDir string

	Logger *zerolog.Logger
}

// ModelPlanner asks an LLM provider for a plan using native tool calling
type ModelPlanner struct {
	provider LLMProvider
	cfg      PlannerConfig
	logger   zerolog.Logger
}

// NewModelPlanner creates a planner backed by provider
func NewModelPlanner(provider LLMProvider, cfg PlannerConfig) (*ModelPlanner, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(provider.Provider())
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &ModelPlanner{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With().Str("component", "planner").Str("provider", provider.Provider()).Logger(),
	}, nil
}

// ProposePlan sends the instruction, the tool definitions and previous turns to
// the model and interprets its reply. A timeout yields ProposalUnsupported;
// other provider failures are returned wrapped in ErrProvider.
func (p *ModelPlanner) ProposePlan(ctx context.Context, instruction string, tools []toolexecutor.ToolSpec, history []Turn) (Proposal, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return Proposal{Kind: ProposalUnsupported, Message: "no instruction given"}, nil
	}

	request := LLMRequest{
		Model:        p.cfg.Model,
		Messages:     buildMessages(instruction, history),
		Tools:        buildToolDefinitions(tools),
		Temperature:  p.cfg.Temperature,
		MaxTokens:    p.cfg.MaxTokens,
		SystemPrompt: p.systemPrompt(),
	}

	callCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	response, err := p.provider.Call(callCtx, request)
	if err != nil {
		if ctx.Err() != nil {
			return Proposal{}, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			p.logger.Warn().Dur("timeout", p.cfg.Timeout).Msg("Model request timed out")
			return Proposal{
				Kind:    ProposalUnsupported,
				Message: fmt.Sprintf("the model did not answer within %s", p.cfg.Timeout),
			}, nil
		}
		p.logger.Error().Err(err).Msg("Model request failed")
		return Proposal{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	p.logger.Debug().
		Dur("duration", time.Since(start)).
		Int("tool_calls", len(response.ToolCalls)).
		Int("text_len", len(response.Content)).
		Msg("Model replied")

	proposal := interpret(response)
	proposal.Usage = response.Usage
	return proposal, nil
}

// interpret maps a model reply onto a Proposal. A clarification call wins over
// a decline, which wins over tool calls. Text alone is a question; nothing at
// all means the instruction is unsupported.
func interpret(response *LLMResponse) Proposal {
	for _, tc := range response.ToolCalls {
		if tc.Name == ClarifyTool {
			question := stringArg(tc.Parameters, "question")
			if question == "" {
				question = "Could you rephrase the request with more detail?"
			}
			return Proposal{Kind: ProposalNeedsClarification, Message: question}
		}
	}

	for _, tc := range response.ToolCalls {
		if tc.Name == DeclineTool {
			reason := stringArg(tc.Parameters, "reason")
			if reason == "" {
				reason = "no available tool can carry out this instruction"
			}
			return Proposal{Kind: ProposalUnsupported, Message: reason}
		}
	}

	if len(response.ToolCalls) > 0 {
		calls := make([]toolexecutor.CandidateCall, 0, len(response.ToolCalls))
		for _, tc := range response.ToolCalls {
			id := tc.ID
			if id == "" {
				id, _ = gonanoid.New()
			}
			calls = append(calls, toolexecutor.CandidateCall{ID: id, Name: tc.Name, Arguments: tc.Parameters})
		}
		return Proposal{Kind: ProposalPlan, Calls: calls}
	}

	if text := strings.TrimSpace(response.Content); text != "" {
		return Proposal{Kind: ProposalNeedsClarification, Message: text}
	}

	return Proposal{Kind: ProposalUnsupported, Message: "the model proposed no action"}
}

func stringArg(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func (p *ModelPlanner) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a tool-choosing assistant ")
	if p.cfg.Domain != "" {
		b.WriteString(p.cfg.Domain)
	} else {
		b.WriteString("with access to a fixed set of tools.")
	}
	b.WriteString("\n")
	if p.cfg.WorkingDir != "" {
		b.WriteString("The current working directory is: " + p.cfg.WorkingDir + "\n")
	}
	b.WriteString("\nCall every tool the request needs, in the order they must run. ")
	b.WriteString("Tools run one after another exactly as you list them, so a later call sees the effects of earlier ones. ")
	b.WriteString("Only use the tools provided and only the parameters they declare.\n")
	b.WriteString("If the request is ambiguous or misses information you need, call " + ClarifyTool + " with one question instead of guessing.\n")
	b.WriteString("If no combination of the tools can carry out the request, call " + DeclineTool + " with a short reason.\n")
	b.WriteString("The earlier turns of the conversation summarize previous requests and how they went.")
	return b.String()
}

func buildMessages(instruction string, history []Turn) []Message {
	messages := make([]Message, 0, 2*len(history)+1)
	for _, turn := range history {
		messages = append(messages,
			Message{Role: RoleUser, Content: turn.Instruction},
			Message{Role: RoleAssistant, Content: turn.Outcome},
		)
	}
	return append(messages, Message{Role: RoleUser, Content: instruction})
}

func buildToolDefinitions(tools []toolexecutor.ToolSpec) []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(tools)+2)
	for _, spec := range tools {
		defs = append(defs, ToolDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: toolexecutor.ParametersSchema(spec),
		})
	}
	return append(defs, controlTools()...)
}

func controlTools() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        ClarifyTool,
			Description: "Ask the user one question when the request is ambiguous or incomplete. Do not call other tools together with this one.",
			InputSchema: toolexecutor.ParametersSchema(toolexecutor.ToolSpec{Parameters: []toolexecutor.ToolParameter{
				{Name: "question", Type: toolexecutor.TypeString, Description: "The question to ask", Required: true},
			}}),
		},
		{
			Name:        DeclineTool,
			Description: "Decline a request that none of the tools can carry out.",
			InputSchema: toolexecutor.ParametersSchema(toolexecutor.ToolSpec{Parameters: []toolexecutor.ToolParameter{
				{Name: "reason", Type: toolexecutor.TypeString, Description: "Why the request cannot be carried out", Required: true},
			}}),
		},
	}
}
