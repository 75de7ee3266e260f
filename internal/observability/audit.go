package observability

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// AuditEvent represents a structured event for the audit log
type AuditEvent struct {
	Type      string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor,omitempty"` // agent name
	RunID     string                 `json:"run_id,omitempty"`
	Action    string                 `json:"action"` // e.g. "execute:delete_file"
	Status    string                 `json:"status"` // step status or run outcome
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AuditLogger appends one JSON line per destructive step and per finished run.
// It implements toolexecutor.Observer.
type AuditLogger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
	actor  string
	runID  string
}

// NewAuditLogger writes audit events to w
func NewAuditLogger(w io.Writer, actor string) *AuditLogger {
	return &AuditLogger{
		logger: zerolog.New(w).With().Timestamp().Logger(),
		actor:  actor,
	}
}

// OpenAuditLogger appends audit events to the file at path
func OpenAuditLogger(path, actor string) (*AuditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	a := NewAuditLogger(file, actor)
	a.file = file
	return a, nil
}

// SetRunID tags subsequent events with the given run
func (a *AuditLogger) SetRunID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runID = id
}

// Record emits an audit event
func (a *AuditLogger) Record(event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if event.Actor == "" {
		event.Actor = a.actor
	}
	if event.RunID == "" {
		event.RunID = a.runID
	}

	entry := a.logger.Log().
		Str("type", event.Type).
		Str("actor", event.Actor).
		Str("run_id", event.RunID).
		Str("action", event.Action).
		Str("status", event.Status)

	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// StepStarted is a no-op; only recorded results are audited
func (a *AuditLogger) StepStarted(step, total int, call toolexecutor.ToolCall, destructive bool) {}

// StepRecorded audits destructive steps, including declined ones
func (a *AuditLogger) StepRecorded(result toolexecutor.StepResult, total int) {
	if !result.Destructive {
		return
	}

	metadata := map[string]interface{}{
		"step": result.Index,
		"args": result.Call.Args,
	}
	if result.Reason != "" {
		metadata["reason"] = result.Reason
	}
	if result.Error != "" {
		metadata["error"] = result.Error
	}

	a.Record(AuditEvent{
		Type:     "tool",
		Action:   "execute:" + result.Call.Name,
		Status:   string(result.Status),
		Metadata: metadata,
	})
}

// RecordRun audits the end of a run
func (a *AuditLogger) RecordRun(runID, outcome string, exitCode int, instruction string) {
	a.Record(AuditEvent{
		Type:   "run",
		RunID:  runID,
		Action: "run",
		Status: outcome,
		Metadata: map[string]interface{}{
			"exit_code":   exitCode,
			"instruction": instruction,
		},
	})
}

// Close closes the audit logger's file handle
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}
