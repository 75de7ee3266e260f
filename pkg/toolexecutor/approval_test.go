package toolexecutor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalManager_NoHandler(t *testing.T) {
	am := NewApprovalManager(nil)

	_, err := am.RequestApproval(context.Background(), ApprovalRequest{})
	assert.Error(t, err)
}

func TestApprovalManager_HandlerError(t *testing.T) {
	am := NewApprovalManager(&MockApprovalHandler{Error: errors.New("broken pipe")})

	_, err := am.RequestApproval(context.Background(), ApprovalRequest{Call: ToolCall{Name: "git_clean"}})
	assert.ErrorContains(t, err, "broken pipe")
}

func TestApprovalManager_Decisions(t *testing.T) {
	mock := &MockApprovalHandler{AutoApprove: true, Deny: map[string]bool{"delete_file": true}}
	am := NewApprovalManager(mock)

	resp, err := am.RequestApproval(context.Background(), ApprovalRequest{Call: ToolCall{Name: "git_clean"}})
	require.NoError(t, err)
	assert.True(t, resp.Approved)

	resp, err = am.RequestApproval(context.Background(), ApprovalRequest{Call: ToolCall{Name: "delete_file"}})
	require.NoError(t, err)
	assert.False(t, resp.Approved)

	assert.Len(t, mock.Requests(), 2)
}

func TestAutoApproveHandler(t *testing.T) {
	resp, err := AutoApproveHandler{}.RequestApproval(context.Background(), ApprovalRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Approved)
}

func TestCLIApprovalHandler_Input(t *testing.T) {
	tests := []struct {
		input    string
		approved bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			h := NewCLIApprovalHandler(strings.NewReader(tt.input), &out)

			resp, err := h.RequestApproval(context.Background(), ApprovalRequest{
				Call:  ToolCall{Name: "git_reset", Args: Args{"mode": "hard", "target": "HEAD~1"}},
				Step:  2,
				Total: 3,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.approved, resp.Approved)
			assert.Contains(t, out.String(), "git_reset")
			assert.Contains(t, out.String(), "2 of 3")
			assert.Contains(t, out.String(), "mode: hard")
		})
	}
}

func TestCLIApprovalHandler_ConsecutivePromptsShareInput(t *testing.T) {
	var out bytes.Buffer
	h := NewCLIApprovalHandler(strings.NewReader("y\nn\n"), &out)
	req := ApprovalRequest{Call: ToolCall{Name: "delete_file"}, Step: 1, Total: 2}

	first, err := h.RequestApproval(context.Background(), req)
	require.NoError(t, err)
	second, err := h.RequestApproval(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, first.Approved)
	assert.False(t, second.Approved)
}
