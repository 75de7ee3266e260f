package toolexecutor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StepStatus is the outcome of one plan step
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepFailure StepStatus = "failure"
	StepSkipped StepStatus = "skipped"
)

// EngineState is the execution state of a run
type EngineState string

const (
	StatePending    EngineState = "pending"
	StateConfirming EngineState = "confirming"
	StateInvoking   EngineState = "invoking"
	StateRecorded   EngineState = "recorded"
	StateCompleted  EngineState = "completed"
	StateHalted     EngineState = "halted"
)

// Skip reasons recorded on skipped steps
const (
	ReasonUserDeclined     = "user declined"
	ReasonDependencyFailed = "dependency failed"
)

// DefaultMaxOutputBytes bounds string output kept in a step result
const DefaultMaxOutputBytes = 64 * 1024

// StepResult is the immutable record of one attempted step
type StepResult struct {
	Index       int           `json:"index"` // 1-based
	Call        ToolCall      `json:"call"`
	Status      StepStatus    `json:"status"`
	Output      *Output       `json:"output,omitempty"`
	Error       string        `json:"error,omitempty"`
	Failure     string        `json:"failure,omitempty"` // failure kind for failed steps
	Reason      string        `json:"reason,omitempty"`  // skip reason
	Destructive bool          `json:"destructive"`
	Duration    time.Duration `json:"duration"`
	Truncated   bool          `json:"truncated,omitempty"`
}

// ExecutionReport is the ordered record of a run. Steps are append-only.
type ExecutionReport struct {
	RunID      string       `json:"run_id"`
	Steps      []StepResult `json:"steps"`
	State      EngineState  `json:"state"`
	HaltReason string       `json:"halt_reason,omitempty"`
}

// Counts returns the number of succeeded, failed and skipped steps
func (r *ExecutionReport) Counts() (succeeded, failed, skipped int) {
	for _, s := range r.Steps {
		switch s.Status {
		case StepSuccess:
			succeeded++
		case StepFailure:
			failed++
		case StepSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// AllSucceeded reports whether the run completed with every step successful
func (r *ExecutionReport) AllSucceeded() bool {
	if r.State != StateCompleted {
		return false
	}
	_, failed, skipped := r.Counts()
	return failed == 0 && skipped == 0
}

// Observer is notified as the engine progresses through a plan
type Observer interface {
	StepStarted(step, total int, call ToolCall, destructive bool)
	StepRecorded(result StepResult, total int)
}

// Observers fans engine notifications out to several observers in order
type Observers []Observer

func (o Observers) StepStarted(step, total int, call ToolCall, destructive bool) {
	for _, obs := range o {
		if obs != nil {
			obs.StepStarted(step, total, call, destructive)
		}
	}
}

func (o Observers) StepRecorded(result StepResult, total int) {
	for _, obs := range o {
		if obs != nil {
			obs.StepRecorded(result, total)
		}
	}
}

// StepRecorder receives per-step measurements
type StepRecorder interface {
	ObserveStep(tool string, status StepStatus, duration time.Duration)
}

// EngineConfig wires the engine's collaborators. Registry is required.
type EngineConfig struct {
	Registry       *Registry
	Classifier     *Classifier
	Approvals      *ApprovalManager
	Logger         *zerolog.Logger
	Metrics        StepRecorder
	Observer       Observer
	MaxOutputBytes int
}

// Engine runs a validated plan strictly in order, one step at a time
type Engine struct {
	registry   *Registry
	classifier *Classifier
	approvals  *ApprovalManager
	logger     zerolog.Logger
	metrics    StepRecorder
	observer   Observer
	maxOutput  int
}

// NewEngine creates an execution engine
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, errors.New("engine requires a registry")
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	maxOutput := cfg.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}

	return &Engine{
		registry:   cfg.Registry,
		classifier: cfg.Classifier,
		approvals:  cfg.Approvals,
		logger:     logger.With().Str("component", "engine").Logger(),
		metrics:    cfg.Metrics,
		observer:   cfg.Observer,
		maxOutput:  maxOutput,
	}, nil
}

// Execute runs the plan and returns its report. The report is always
// non-nil. A *FatalError is returned alongside the partial report when a
// step fails fatally or ctx is cancelled; declines and recoverable failures
// are reflected only in the report.
func (e *Engine) Execute(ctx context.Context, runID string, plan ExecutionPlan, wc *WorkContext) (*ExecutionReport, error) {
	report := &ExecutionReport{
		RunID: runID,
		Steps: make([]StepResult, 0, len(plan)),
		State: StatePending,
	}
	total := len(plan)
	skipNext := false

	e.logger.Info().Str("run_id", runID).Int("steps", total).Msg("Executing plan")

	for i, call := range plan {
		step := i + 1

		if err := ctx.Err(); err != nil {
			return e.halt(report, fmt.Sprintf("interrupted before step %d", step), &FatalError{Step: step, Err: err})
		}

		destructive := e.classifier.IsDestructive(call)

		if skipNext {
			skipNext = false
			e.record(report, StepResult{
				Index:       step,
				Call:        call,
				Status:      StepSkipped,
				Reason:      ReasonDependencyFailed,
				Destructive: destructive,
			}, total)
			continue
		}

		_, handler, err := e.registry.Resolve(call.Name)
		if err != nil {
			e.record(report, StepResult{
				Index:       step,
				Call:        call,
				Status:      StepFailure,
				Error:       err.Error(),
				Failure:     FailureFatal.String(),
				Destructive: destructive,
			}, total)
			return e.halt(report, fmt.Sprintf("step %d could not be resolved", step), &FatalError{Step: step, Tool: call.Name, Err: err})
		}

		if e.observer != nil {
			e.observer.StepStarted(step, total, call, destructive)
		}

		if destructive {
			report.State = StateConfirming
			approved, err := e.confirm(ctx, call, step, total, wc)
			if ctx.Err() != nil {
				return e.halt(report, fmt.Sprintf("interrupted at step %d", step), &FatalError{Step: step, Err: ctx.Err()})
			}
			if !approved {
				if err != nil {
					e.logger.Warn().Err(err).Str("tool", call.Name).Msg("Confirmation failed, treating as declined")
				}
				e.record(report, StepResult{
					Index:       step,
					Call:        call,
					Status:      StepSkipped,
					Reason:      ReasonUserDeclined,
					Destructive: true,
				}, total)
				report.State = StateHalted
				report.HaltReason = fmt.Sprintf("user declined step %d (%s)", step, call.Name)
				return report, nil
			}
		}

		report.State = StateInvoking
		result := e.invoke(ctx, handler, call, wc)
		result.Index = step
		result.Destructive = destructive
		e.record(report, result, total)

		if result.Status == StepFailure {
			switch result.Failure {
			case FailureBlocking.String():
				skipNext = true
			case FailureFatal.String():
				return e.halt(report, fmt.Sprintf("step %d (%s) failed fatally", step, call.Name),
					&FatalError{Step: step, Tool: call.Name, Err: errors.New(result.Error)})
			}
		}
	}

	report.State = StateCompleted
	e.logger.Info().Str("run_id", runID).Msg("Plan completed")
	return report, nil
}

func (e *Engine) confirm(ctx context.Context, call ToolCall, step, total int, wc *WorkContext) (bool, error) {
	if e.approvals == nil {
		return false, errors.New("no confirmation available")
	}
	req := ApprovalRequest{
		Call:  call,
		Step:  step,
		Total: total,
	}
	if wc != nil {
		req.WorkingDir = wc.Dir()
	}
	resp, err := e.approvals.RequestApproval(ctx, req)
	if err != nil {
		return false, err
	}
	return resp.Approved, nil
}

// invoke runs a handler, turning panics into fatal failures
func (e *Engine) invoke(ctx context.Context, handler Handler, call ToolCall, wc *WorkContext) (result StepResult) {
	result.Call = call
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			e.logger.Error().
				Str("tool", call.Name).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Tool handler panicked")
			result.Status = StepFailure
			result.Output = nil
			result.Error = fmt.Sprintf("handler panicked: %v", r)
			result.Failure = FailureFatal.String()
		}
	}()

	e.logger.Debug().Str("tool", call.Name).Msg("Invoking tool")

	output, err := handler(ctx, wc, call.Args.Clone())
	if err != nil {
		kind := ClassifyFailure(err)
		if ctx.Err() != nil {
			kind = FailureFatal
		}
		result.Status = StepFailure
		result.Error = err.Error()
		result.Failure = kind.String()
		return result
	}

	output, truncated := e.truncateOutput(output)
	result.Status = StepSuccess
	result.Output = &output
	result.Truncated = truncated
	return result
}

func (e *Engine) record(report *ExecutionReport, result StepResult, total int) {
	report.Steps = append(report.Steps, result)
	report.State = StateRecorded

	evt := e.logger.Info()
	if result.Status == StepFailure {
		evt = e.logger.Warn().Str("error", result.Error).Str("failure", result.Failure)
	}
	evt.Int("step", result.Index).
		Str("tool", result.Call.Name).
		Str("status", string(result.Status)).
		Str("reason", result.Reason).
		Dur("duration", result.Duration).
		Msg("Step recorded")

	if e.metrics != nil {
		e.metrics.ObserveStep(result.Call.Name, result.Status, result.Duration)
	}
	if e.observer != nil {
		e.observer.StepRecorded(result, total)
	}
}

func (e *Engine) halt(report *ExecutionReport, reason string, err *FatalError) (*ExecutionReport, error) {
	report.State = StateHalted
	report.HaltReason = reason
	e.logger.Error().Err(err).Str("run_id", report.RunID).Msg("Plan halted")
	return report, err
}

// truncateOutput bounds string payloads
func (e *Engine) truncateOutput(output Output) (Output, bool) {
	str, ok := output.Data.(string)
	if !ok || len(str) <= e.maxOutput {
		return output, false
	}

	// cut on a rune boundary
	cut := e.maxOutput
	for cut > 0 && !utf8.RuneStart(str[cut]) {
		cut--
	}

	e.logger.Warn().
		Int("original", len(str)).
		Int("truncated", cut).
		Msg("Output truncated")

	output.Data = str[:cut] + "\n... [output truncated]"
	return output, true
}
