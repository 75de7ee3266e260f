package toolexecutor

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ApprovalRequest asks the user to confirm one destructive call
type ApprovalRequest struct {
	Call       ToolCall `json:"call"`
	Step       int      `json:"step"`
	Total      int      `json:"total"`
	WorkingDir string   `json:"working_dir"`
	Reason     string   `json:"reason"`
}

// ApprovalResponse represents the response to an approval request
type ApprovalResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// ApprovalHandler handles approval requests
type ApprovalHandler interface {
	RequestApproval(ctx context.Context, req ApprovalRequest) (ApprovalResponse, error)
}

// ApprovalManager solicits confirmation decisions. There is no timeout:
// it waits for the handler or for ctx to be cancelled.
type ApprovalManager struct {
	handler ApprovalHandler
}

// NewApprovalManager creates a new approval manager
func NewApprovalManager(handler ApprovalHandler) *ApprovalManager {
	return &ApprovalManager{handler: handler}
}

// RequestApproval returns the user's decision for a call.
// An error means no decision could be obtained.
func (am *ApprovalManager) RequestApproval(ctx context.Context, req ApprovalRequest) (ApprovalResponse, error) {
	if am == nil || am.handler == nil {
		return ApprovalResponse{}, fmt.Errorf("no approval handler configured")
	}

	log.Info().
		Str("tool", req.Call.Name).
		Int("step", req.Step).
		Msg("Requesting approval")

	responseChan := make(chan ApprovalResponse, 1)
	errorChan := make(chan error, 1)

	go func() {
		response, err := am.handler.RequestApproval(ctx, req)
		if err != nil {
			errorChan <- err
		} else {
			responseChan <- response
		}
	}()

	select {
	case response := <-responseChan:
		if response.Approved {
			log.Info().
				Str("tool", req.Call.Name).
				Str("reason", response.Reason).
				Msg("Approval granted")
		} else {
			log.Warn().
				Str("tool", req.Call.Name).
				Str("reason", response.Reason).
				Msg("Approval denied")
		}
		return response, nil

	case err := <-errorChan:
		log.Error().
			Err(err).
			Str("tool", req.Call.Name).
			Msg("Approval request failed")
		return ApprovalResponse{}, fmt.Errorf("approval request failed: %w", err)

	case <-ctx.Done():
		return ApprovalResponse{}, ctx.Err()
	}
}

// SetHandler sets the approval handler
func (am *ApprovalManager) SetHandler(handler ApprovalHandler) {
	am.handler = handler
}

// MockApprovalHandler is a scripted handler for tests
type MockApprovalHandler struct {
	AutoApprove bool
	Deny        map[string]bool // tools to decline even when AutoApprove is set
	Error       error

	mu       sync.Mutex
	requests []ApprovalRequest
}

// RequestApproval implements ApprovalHandler
func (m *MockApprovalHandler) RequestApproval(ctx context.Context, req ApprovalRequest) (ApprovalResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Error != nil {
		return ApprovalResponse{}, m.Error
	}
	if m.Deny[req.Call.Name] || !m.AutoApprove {
		return ApprovalResponse{Approved: false, Reason: "denied by mock"}, nil
	}
	return ApprovalResponse{Approved: true, Reason: "auto-approved"}, nil
}

// Requests returns every request the mock received
func (m *MockApprovalHandler) Requests() []ApprovalRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ApprovalRequest(nil), m.requests...)
}
