package gittools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrGitNotFound is returned when the git executable cannot be located
var ErrGitNotFound = errors.New("git executable not found")

// Result is the captured outcome of one git invocation
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CommandRunner runs git with args in dir
type CommandRunner interface {
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// ExecRunner runs the real git binary on the host
type ExecRunner struct {
	Binary string
	Env    []string // appended to the inherited environment
}

// NewExecRunner creates a runner for the git binary on PATH
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Binary: "git"}
}

// Run executes git. A non-zero exit is reported in Result, not as an error;
// the error is reserved for git being unavailable or the context ending.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	binary := r.Binary
	if binary == "" {
		binary = "git"
	}

	if _, err := exec.LookPath(binary); err != nil {
		return Result{ExitCode: 127}, fmt.Errorf("%w: %v", ErrGitNotFound, err)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if ctx.Err() != nil {
		return Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: -1, Duration: duration}, ctx.Err()
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{ExitCode: -1, Duration: duration}, fmt.Errorf("failed to run git: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	result := Result{
		Stdout:   strings.TrimRight(stdout.String(), " \r\n\t"),
		Stderr:   strings.TrimSpace(stderr.String()),
		ExitCode: exitCode,
		Duration: duration,
	}

	log.Debug().
		Strs("args", args).
		Str("dir", dir).
		Int("exit_code", exitCode).
		Dur("duration", duration).
		Msg("git executed")

	return result, nil
}
