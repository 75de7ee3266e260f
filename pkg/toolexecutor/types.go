package toolexecutor

import (
	"context"
	"fmt"
	"strings"
)

// ParamType is the semantic type of a tool parameter
type ParamType string

const (
	TypeString         ParamType = "string"
	TypeInteger        ParamType = "integer"
	TypeBoolean        ParamType = "boolean"
	TypeOptionalString ParamType = "optional_string"
)

// IsValid reports whether t is one of the supported parameter types
func (t ParamType) IsValid() bool {
	switch t {
	case TypeString, TypeInteger, TypeBoolean, TypeOptionalString:
		return true
	}
	return false
}

// ToolParameter defines a parameter for a tool.
// A parameter is either Required or carries a Default; optional strings may
// leave Default nil, meaning "not set".
type ToolParameter struct {
	Name        string        `json:"name"`
	Type        ParamType     `json:"type"`
	Description string        `json:"description"`
	Required    bool          `json:"required"`
	Default     interface{}   `json:"default,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
}

// ToolSpec is the immutable description of a registered tool
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
}

// Parameter looks up a declared parameter by name
func (s ToolSpec) Parameter(name string) (ToolParameter, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ToolParameter{}, false
}

// Signature renders the tool as name(param, param='default', ...)
func (s ToolSpec) Signature() string {
	parts := make([]string, 0, len(s.Parameters))
	for _, p := range s.Parameters {
		switch {
		case p.Required:
			parts = append(parts, fmt.Sprintf("%s: %s", p.Name, p.Type))
		case p.Default == nil:
			parts = append(parts, fmt.Sprintf("%s: %s = None", p.Name, p.Type))
		case p.Type == TypeString || p.Type == TypeOptionalString:
			parts = append(parts, fmt.Sprintf("%s: %s = '%v'", p.Name, p.Type, p.Default))
		default:
			parts = append(parts, fmt.Sprintf("%s: %s = %v", p.Name, p.Type, p.Default))
		}
	}
	return s.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (s ToolSpec) clone() ToolSpec {
	params := make([]ToolParameter, len(s.Parameters))
	for i, p := range s.Parameters {
		if p.Enum != nil {
			p.Enum = append([]interface{}(nil), p.Enum...)
		}
		params[i] = p
	}
	s.Parameters = params
	return s
}

// Handler executes a tool with validated, typed arguments.
// The work context carries the current directory for the run.
type Handler func(ctx context.Context, wc *WorkContext, args Args) (Output, error)

// Tool pairs a spec with its handler for static registration tables
type Tool struct {
	Spec    ToolSpec
	Handler Handler
}

// Output is the success payload of a tool handler.
// Data is free-form: *Table, string, []string, map[string]string or bool.
type Output struct {
	Summary string      `json:"summary"`
	Data    interface{} `json:"data,omitempty"`
}

// Table is tabular tool output, rendered by the console presenter
type Table struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// AddRow appends a row to the table
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// ToolCall is a validated invocation: the tool exists and Args satisfy its spec
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args Args   `json:"args"`
}

// ExecutionPlan is an ordered sequence of validated calls.
// Order is execution order; it is never rearranged.
type ExecutionPlan []ToolCall

// CandidateCall is an unvalidated call proposed by the model
type CandidateCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}
