package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harun/toolpilot/pkg/history"
	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Exit codes reported through Outcome.ExitCode
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitPartial       = 2
	ExitClarification = 3
)

// OutcomeKind is how a run ended
type OutcomeKind string

const (
	OutcomeCompleted     OutcomeKind = "completed"
	OutcomePartial       OutcomeKind = "partial"
	OutcomeFatal         OutcomeKind = "fatal"
	OutcomeClarification OutcomeKind = "clarification"
	OutcomeUnsupported   OutcomeKind = "unsupported"
	OutcomeRejected      OutcomeKind = "rejected"
	OutcomeDryRun        OutcomeKind = "dry_run"
	OutcomeError         OutcomeKind = "error"
)

// HistoryStore records runs and returns recent ones
type HistoryStore interface {
	Record(ctx context.Context, run history.Run) error
	Recent(ctx context.Context, agent string, limit int) ([]history.Run, error)
}

// RunRecorder receives per-run measurements
type RunRecorder interface {
	ObserveRun(agent string, outcome string, duration time.Duration)
}

// Config holds runner configuration
type Config struct {
	// Agent names the tool library, e.g. "git" or "file"
	Agent    string
	Planner  PlanProposer
	Registry *toolexecutor.Registry
	Engine   *toolexecutor.Engine

	// History is optional; ContextTurns previous runs of the same agent are
	// passed to the planner when set
	History      HistoryStore
	ContextTurns int

	Metrics RunRecorder
	Logger  *zerolog.Logger
}

// Runner drives one instruction through plan, validation and execution
type Runner struct {
	agent        string
	planner      PlanProposer
	registry     *toolexecutor.Registry
	validator    *toolexecutor.Validator
	engine       *toolexecutor.Engine
	history      HistoryStore
	contextTurns int
	metrics      RunRecorder
	logger       zerolog.Logger
}

// RunParams is the input of one run
type RunParams struct {
	Instruction string
	WorkContext *toolexecutor.WorkContext

	// DryRun validates the plan without executing it
	DryRun bool

	// RunID is generated when empty
	RunID string
}

// Outcome is the result of one run
type Outcome struct {
	RunID       string                        `json:"run_id"`
	Agent       string                        `json:"agent"`
	Instruction string                        `json:"instruction"`
	Kind        OutcomeKind                   `json:"kind"`
	ExitCode    int                           `json:"exit_code"`
	Message     string                        `json:"message,omitempty"` // question, reason or error text
	Plan        toolexecutor.ExecutionPlan    `json:"plan,omitempty"`
	Report      *toolexecutor.ExecutionReport `json:"report,omitempty"`
	Err         error                         `json:"-"`
	StartedAt   time.Time                     `json:"started_at"`
	FinishedAt  time.Time                     `json:"finished_at"`
}

// Summary is a one-line description of the outcome, also fed back to the
// model as the assistant side of a history turn
func (o *Outcome) Summary() string {
	switch o.Kind {
	case OutcomeCompleted:
		return fmt.Sprintf("Completed %d step(s): %s", len(o.Plan), describePlan(o.Plan))
	case OutcomePartial, OutcomeFatal:
		succeeded, failed, skipped := 0, 0, 0
		if o.Report != nil {
			succeeded, failed, skipped = o.Report.Counts()
		}
		msg := fmt.Sprintf("%d succeeded, %d failed, %d skipped of %d step(s)", succeeded, failed, skipped, len(o.Plan))
		if o.Report != nil && o.Report.HaltReason != "" {
			msg += " (halted: " + o.Report.HaltReason + ")"
		}
		return msg
	case OutcomeDryRun:
		return fmt.Sprintf("Planned without executing: %s", describePlan(o.Plan))
	case OutcomeClarification:
		return "Asked for clarification: " + o.Message
	case OutcomeUnsupported:
		return "Unsupported: " + o.Message
	case OutcomeRejected:
		return "Plan rejected: " + o.Message
	default:
		return "Failed: " + o.Message
	}
}

func describePlan(plan toolexecutor.ExecutionPlan) string {
	names := make([]string, len(plan))
	for i, call := range plan {
		names[i] = call.Name
	}
	return strings.Join(names, ", ")
}

// NewRunner creates a new agent runner
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Agent == "" {
		return nil, errors.New("agent name is required")
	}
	if cfg.Planner == nil {
		return nil, errors.New("planner is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.ContextTurns < 0 {
		return nil, errors.New("context turns cannot be negative")
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Runner{
		agent:        cfg.Agent,
		planner:      cfg.Planner,
		registry:     cfg.Registry,
		validator:    toolexecutor.NewValidator(cfg.Registry),
		engine:       cfg.Engine,
		history:      cfg.History,
		contextTurns: cfg.ContextTurns,
		metrics:      cfg.Metrics,
		logger:       logger.With().Str("component", "runner").Str("agent", cfg.Agent).Logger(),
	}, nil
}

// Run plans, validates and executes one instruction. Every way a run can end
// is described by the returned Outcome; the error is only set for invalid
// parameters.
func (r *Runner) Run(ctx context.Context, params RunParams) (*Outcome, error) {
	if params.WorkContext == nil {
		return nil, errors.New("work context is required")
	}

	runID := params.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	outcome := &Outcome{
		RunID:       runID,
		Agent:       r.agent,
		Instruction: params.Instruction,
		StartedAt:   time.Now(),
	}
	logger := r.logger.With().Str("run_id", outcome.RunID).Logger()

	r.execute(ctx, params, outcome, logger)

	outcome.FinishedAt = time.Now()
	outcome.ExitCode = exitCode(outcome.Kind)

	logger.Info().
		Str("outcome", string(outcome.Kind)).
		Int("exit_code", outcome.ExitCode).
		Dur("duration", outcome.FinishedAt.Sub(outcome.StartedAt)).
		Msg("Run finished")

	if r.metrics != nil {
		r.metrics.ObserveRun(r.agent, string(outcome.Kind), outcome.FinishedAt.Sub(outcome.StartedAt))
	}
	r.record(outcome, logger)

	return outcome, nil
}

func (r *Runner) execute(ctx context.Context, params RunParams, outcome *Outcome, logger zerolog.Logger) {
	proposal, err := r.planner.ProposePlan(ctx, params.Instruction, r.registry.ListAll(), r.turns(ctx, logger))
	if err != nil {
		outcome.Kind = OutcomeError
		outcome.Err = err
		outcome.Message = err.Error()
		return
	}

	switch proposal.Kind {
	case ProposalNeedsClarification:
		outcome.Kind = OutcomeClarification
		outcome.Message = proposal.Message
		return
	case ProposalUnsupported:
		outcome.Kind = OutcomeUnsupported
		outcome.Message = proposal.Message
		return
	}

	plan, err := r.validator.Validate(proposal.Calls)
	if err != nil {
		outcome.Kind = OutcomeRejected
		outcome.Err = err
		outcome.Message = err.Error()
		return
	}
	outcome.Plan = plan

	logger.Debug().Int("steps", len(plan)).Str("plan", describePlan(plan)).Msg("Plan accepted")

	if params.DryRun {
		outcome.Kind = OutcomeDryRun
		return
	}

	report, err := r.engine.Execute(ctx, outcome.RunID, plan, params.WorkContext)
	outcome.Report = report

	var fatal *toolexecutor.FatalError
	switch {
	case errors.As(err, &fatal):
		outcome.Kind = OutcomeFatal
		outcome.Err = err
		outcome.Message = err.Error()
	case err != nil:
		outcome.Kind = OutcomeError
		outcome.Err = err
		outcome.Message = err.Error()
	case report.AllSucceeded():
		outcome.Kind = OutcomeCompleted
	default:
		outcome.Kind = OutcomePartial
	}
}

// turns loads the previous runs of this agent as conversation context, oldest first
func (r *Runner) turns(ctx context.Context, logger zerolog.Logger) []Turn {
	if r.history == nil || r.contextTurns == 0 {
		return nil
	}

	runs, err := r.history.Recent(ctx, r.agent, r.contextTurns)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load history context")
		return nil
	}

	turns := make([]Turn, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		turns = append(turns, Turn{Instruction: runs[i].Instruction, Outcome: runs[i].Summary})
	}
	return turns
}

func (r *Runner) record(outcome *Outcome, logger zerolog.Logger) {
	if r.history == nil {
		return
	}

	// recorded even when the run's context was cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.history.Record(ctx, history.Run{
		ID:          outcome.RunID,
		Agent:       outcome.Agent,
		Instruction: outcome.Instruction,
		Outcome:     string(outcome.Kind),
		Summary:     outcome.Summary(),
		ExitCode:    outcome.ExitCode,
		StartedAt:   outcome.StartedAt,
		FinishedAt:  outcome.FinishedAt,
		Steps:       history.StepsFromReport(outcome.Report),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to record run")
	}
}

func exitCode(kind OutcomeKind) int {
	switch kind {
	case OutcomeCompleted, OutcomeDryRun:
		return ExitOK
	case OutcomePartial:
		return ExitPartial
	case OutcomeClarification:
		return ExitClarification
	default:
		return ExitFailure
	}
}
