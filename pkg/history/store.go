package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// DefaultLimit is used by Recent when limit is not positive
const DefaultLimit = 20

// Step is the stored summary of one plan step
type Step struct {
	Index  int                    `json:"index"`
	Tool   string                 `json:"tool"`
	Args   map[string]interface{} `json:"args,omitempty"`
	Status string                 `json:"status"`
	Detail string                 `json:"detail,omitempty"` // error or skip reason
}

// Run is one recorded agent invocation
type Run struct {
	ID          string    `json:"id"`
	Agent       string    `json:"agent"`
	Instruction string    `json:"instruction"`
	Outcome     string    `json:"outcome"`
	Summary     string    `json:"summary"`
	ExitCode    int       `json:"exit_code"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Steps       []Step    `json:"steps,omitempty"`
}

// Duration is how long the run took
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// StepsFromReport summarizes an execution report for storage
func StepsFromReport(report *toolexecutor.ExecutionReport) []Step {
	if report == nil {
		return nil
	}

	steps := make([]Step, 0, len(report.Steps))
	for _, s := range report.Steps {
		detail := s.Error
		if s.Status == toolexecutor.StepSkipped {
			detail = s.Reason
		}
		steps = append(steps, Step{
			Index:  s.Index,
			Tool:   s.Call.Name,
			Args:   s.Call.Args,
			Status: string(s.Status),
			Detail: detail,
		})
	}
	return steps
}

// Store keeps run history in SQLite
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Config holds store configuration
type Config struct {
	DBPath string
	Logger *zerolog.Logger
}

// Open opens or creates the history database at cfg.DBPath
func Open(cfg Config) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	s := &Store{db: db, logger: logger.With().Str("component", "history").Logger()}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			agent TEXT NOT NULL,
			instruction TEXT NOT NULL,
			outcome TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			exit_code INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			steps_json TEXT NOT NULL DEFAULT '[]'
		);

		CREATE INDEX IF NOT EXISTS idx_runs_agent_started ON runs(agent, started_at);
	`)
	return err
}

// Record stores a finished run
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}

	steps := run.Steps
	if steps == nil {
		steps = []Step{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("failed to encode steps: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, agent, instruction, outcome, summary, exit_code, started_at, finished_at, steps_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Agent, run.Instruction, run.Outcome, run.Summary, run.ExitCode,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), string(stepsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}

	s.logger.Debug().Str("run_id", run.ID).Str("outcome", run.Outcome).Msg("Run recorded")
	return nil
}

// Recent returns up to limit runs, newest first. An empty agent matches every agent.
func (s *Store) Recent(ctx context.Context, agent string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, agent, instruction, outcome, summary, exit_code, started_at, finished_at, steps_json FROM runs`
	args := []interface{}{}
	if agent != "" {
		query += ` WHERE agent = ?`
		args = append(args, agent)
	}
	query += ` ORDER BY started_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run               Run
			started, finished int64
			stepsJSON         string
		)
		if err := rows.Scan(&run.ID, &run.Agent, &run.Instruction, &run.Outcome, &run.Summary,
			&run.ExitCode, &started, &finished, &stepsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(started)
		run.FinishedAt = time.UnixMilli(finished)
		if err := json.Unmarshal([]byte(stepsJSON), &run.Steps); err != nil {
			s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Ignoring unreadable steps")
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
