package gittools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// fakeRunner returns scripted results keyed by the joined git arguments
type fakeRunner struct {
	results map[string]Result
	err     error
	calls   [][]string
	dirs    []string
}

func (f *fakeRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	f.calls = append(f.calls, args)
	f.dirs = append(f.dirs, dir)
	if f.err != nil {
		return Result{}, f.err
	}
	if res, ok := f.results[strings.Join(args, " ")]; ok {
		return res, nil
	}
	return Result{}, nil
}

func setup(t *testing.T, runner *fakeRunner) (*toolexecutor.Registry, *toolexecutor.WorkContext) {
	t.Helper()

	reg := toolexecutor.NewRegistry()
	require.NoError(t, Register(reg, runner, nil))
	reg.Seal()

	wc, err := toolexecutor.NewWorkContext(t.TempDir())
	require.NoError(t, err)
	return reg, wc
}

func invoke(t *testing.T, reg *toolexecutor.Registry, wc *toolexecutor.WorkContext, name string, raw map[string]interface{}) (toolexecutor.Output, error) {
	t.Helper()

	call, err := toolexecutor.NewValidator(reg).ValidateCall(1, toolexecutor.CandidateCall{Name: name, Arguments: raw})
	require.NoError(t, err)

	_, handler, err := reg.Resolve(name)
	require.NoError(t, err)
	return handler(context.Background(), wc, call.Args)
}

func TestTools_Registered(t *testing.T) {
	reg, _ := setup(t, &fakeRunner{})

	var names []string
	for _, spec := range reg.ListAll() {
		names = append(names, spec.Name)
	}
	assert.Equal(t, []string{
		"git_status", "git_add", "git_commit", "git_revert_last_commit", "git_create_branch",
		"git_checkout", "git_fetch", "git_pull", "git_push", "git_init", "git_log", "git_diff",
		"git_reset", "git_delete_branch", "git_clean", "git_rebase",
	}, names)
}

func TestTools_CommandArguments(t *testing.T) {
	tests := []struct {
		tool string
		args map[string]interface{}
		want []string
	}{
		{"git_add", map[string]interface{}{}, []string{"add", "--", "."}},
		{"git_add", map[string]interface{}{"files": "a.go b.go"}, []string{"add", "--", "a.go", "b.go"}},
		{"git_commit", map[string]interface{}{"message": "init"}, []string{"commit", "-m", "init"}},
		{"git_revert_last_commit", nil, []string{"revert", "HEAD", "--no-edit"}},
		{"git_create_branch", map[string]interface{}{"branch_name": "feat"}, []string{"branch", "feat"}},
		{"git_create_branch", map[string]interface{}{"branch_name": "feat", "base_branch": "dev"}, []string{"branch", "feat", "dev"}},
		{"git_checkout", map[string]interface{}{"branch_name": "dev"}, []string{"switch", "dev"}},
		{"git_fetch", nil, []string{"fetch", "--all"}},
		{"git_fetch", map[string]interface{}{"remote": "upstream"}, []string{"fetch", "upstream"}},
		{"git_pull", nil, []string{"pull", "origin", "main"}},
		{"git_push", map[string]interface{}{"branch": "dev"}, []string{"push", "origin", "dev"}},
		{"git_push", map[string]interface{}{"force": true}, []string{"push", "--force", "origin", "main"}},
		{"git_init", nil, []string{"init"}},
		{"git_log", map[string]interface{}{"num_commits": "3"}, []string{"log", "-n3", "--pretty=format:%h|%an|%ad|%s", "--date=short"}},
		{"git_diff", map[string]interface{}{"staged": true}, []string{"diff", "--staged"}},
		{"git_reset", nil, []string{"reset", "--mixed", "HEAD"}},
		{"git_reset", map[string]interface{}{"mode": "hard", "target": "HEAD~1"}, []string{"reset", "--hard", "HEAD~1"}},
		{"git_delete_branch", map[string]interface{}{"branch_name": "old"}, []string{"branch", "-d", "old"}},
		{"git_delete_branch", map[string]interface{}{"branch_name": "old", "force": true}, []string{"branch", "-D", "old"}},
		{"git_clean", map[string]interface{}{"force": true}, []string{"clean", "-f", "-d"}},
		{"git_clean", map[string]interface{}{"force": true, "directories": false}, []string{"clean", "-f"}},
		{"git_rebase", map[string]interface{}{"upstream": "main"}, []string{"rebase", "main"}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %v", tt.tool, tt.args), func(t *testing.T) {
			runner := &fakeRunner{}
			reg, wc := setup(t, runner)

			_, err := invoke(t, reg, wc, tt.tool, tt.args)
			require.NoError(t, err)
			require.NotEmpty(t, runner.calls)
			assert.Equal(t, tt.want, runner.calls[0])
			assert.Equal(t, wc.Dir(), runner.dirs[0])
		})
	}
}

func TestGitClean_RequiresForceTrue(t *testing.T) {
	reg, _ := setup(t, &fakeRunner{})

	_, err := toolexecutor.NewValidator(reg).ValidateCall(1, toolexecutor.CandidateCall{
		Name:      "git_clean",
		Arguments: map[string]interface{}{"force": false},
	})
	assert.ErrorIs(t, err, toolexecutor.ErrInvalidArgument)
}

func TestGitStatus_ParsesPorcelain(t *testing.T) {
	runner := &fakeRunner{results: map[string]Result{
		"status --porcelain":           {Stdout: "M  staged.go\n M unstaged.go\nMM both.go\n?? new.txt"},
		"rev-parse --abbrev-ref HEAD": {Stdout: "feature"},
	}}
	reg, wc := setup(t, runner)

	out, err := invoke(t, reg, wc, "git_status", nil)
	require.NoError(t, err)

	assert.Equal(t, "2 staged, 2 unstaged, 1 untracked (on branch feature)", out.Summary)
	table, ok := out.Data.(*toolexecutor.Table)
	require.True(t, ok)
	assert.Equal(t, [][]string{
		{"staged", "both.go"},
		{"staged", "staged.go"},
		{"unstaged", "both.go"},
		{"unstaged", "unstaged.go"},
		{"untracked", "new.txt"},
	}, table.Rows)
}

func TestGitStatus_Clean(t *testing.T) {
	runner := &fakeRunner{results: map[string]Result{
		"rev-parse --abbrev-ref HEAD": {Stdout: "main"},
	}}
	reg, wc := setup(t, runner)

	out, err := invoke(t, reg, wc, "git_status", nil)
	require.NoError(t, err)
	assert.Equal(t, "Working tree clean (on branch main)", out.Summary)
	assert.Nil(t, out.Data)
}

func TestGitLog_Table(t *testing.T) {
	runner := &fakeRunner{results: map[string]Result{
		"log -n5 --pretty=format:%h|%an|%ad|%s --date=short": {
			Stdout: "abc123|Ada|2026-01-02|fix: a | b\ndef456|Linus|2026-01-01|init",
		},
	}}
	reg, wc := setup(t, runner)

	out, err := invoke(t, reg, wc, "git_log", nil)
	require.NoError(t, err)

	table := out.Data.(*toolexecutor.Table)
	assert.Equal(t, []string{"Hash", "Author", "Date", "Message"}, table.Columns)
	assert.Equal(t, []string{"abc123", "Ada", "2026-01-02", "fix: a | b"}, table.Rows[0])
	assert.Len(t, table.Rows, 2)
}

func TestGitCommit_ParsesHash(t *testing.T) {
	runner := &fakeRunner{results: map[string]Result{
		"commit -m first": {Stdout: "[main (root-commit) 1a2b3c4] first\n 1 file changed"},
	}}
	reg, wc := setup(t, runner)

	out, err := invoke(t, reg, wc, "git_commit", map[string]interface{}{"message": "first"})
	require.NoError(t, err)
	assert.Equal(t, "Committed 1a2b3c4: first", out.Summary)
}

func TestFailureClassification(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]interface{}
		key  string
		kind toolexecutor.FailureKind
	}{
		{"nothing to commit", "git_commit", map[string]interface{}{"message": "m"}, "commit -m m", toolexecutor.FailureRecoverable},
		{"add is blocking", "git_add", nil, "add -- .", toolexecutor.FailureBlocking},
		{"branch is blocking", "git_create_branch", map[string]interface{}{"branch_name": "x"}, "branch x", toolexecutor.FailureBlocking},
		{"fetch is blocking", "git_fetch", nil, "fetch --all", toolexecutor.FailureBlocking},
		{"checkout is recoverable", "git_checkout", map[string]interface{}{"branch_name": "x"}, "switch x", toolexecutor.FailureRecoverable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{results: map[string]Result{
				tt.key: {ExitCode: 1, Stderr: "fatal: something went wrong"},
			}}
			reg, wc := setup(t, runner)

			_, err := invoke(t, reg, wc, tt.tool, tt.args)
			require.Error(t, err)
			assert.Equal(t, tt.kind, toolexecutor.ClassifyFailure(err))
			assert.Contains(t, err.Error(), "something went wrong")
		})
	}
}

func TestNotARepositoryHint(t *testing.T) {
	runner := &fakeRunner{results: map[string]Result{
		"status --porcelain": {ExitCode: 128, Stderr: "fatal: not a git repository (or any of the parent directories): .git"},
	}}
	reg, wc := setup(t, runner)

	_, err := invoke(t, reg, wc, "git_status", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run git_init first")
	assert.Equal(t, toolexecutor.FailureRecoverable, toolexecutor.ClassifyFailure(err))
}

func TestMissingGitIsFatal(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: exec: \"git\": not found", ErrGitNotFound)}
	reg, wc := setup(t, runner)

	_, err := invoke(t, reg, wc, "git_status", nil)
	require.Error(t, err)
	assert.Equal(t, toolexecutor.FailureFatal, toolexecutor.ClassifyFailure(err))
	assert.ErrorIs(t, err, ErrGitNotFound)
}

func TestNilWorkContextIsFatal(t *testing.T) {
	reg, _ := setup(t, &fakeRunner{})

	_, err := invoke(t, reg, nil, "git_status", nil)
	assert.Equal(t, toolexecutor.FailureFatal, toolexecutor.ClassifyFailure(err))
}

func TestGitInit_Reinitialize(t *testing.T) {
	reg, wc := setup(t, &fakeRunner{})
	require.NoError(t, os.Mkdir(filepath.Join(wc.Dir(), ".git"), 0o755))

	out, err := invoke(t, reg, wc, "git_init", nil)
	require.NoError(t, err)
	assert.Contains(t, out.Summary, "Reinitialized")
}

func TestGitClean_ListsRemoved(t *testing.T) {
	runner := &fakeRunner{results: map[string]Result{
		"clean -f -d": {Stdout: "Removing tmp/\nRemoving junk.txt"},
	}}
	reg, wc := setup(t, runner)

	out, err := invoke(t, reg, wc, "git_clean", map[string]interface{}{"force": "true"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp/", "junk.txt"}, out.Data)
}

func TestRefArguments_RejectOptions(t *testing.T) {
	tests := []struct {
		tool string
		args map[string]interface{}
		kind toolexecutor.FailureKind
	}{
		{"git_reset", map[string]interface{}{"target": "--hard", "mode": "mixed"}, toolexecutor.FailureRecoverable},
		{"git_push", map[string]interface{}{"branch": "--force"}, toolexecutor.FailureRecoverable},
		{"git_push", map[string]interface{}{"remote": "--mirror"}, toolexecutor.FailureRecoverable},
		{"git_pull", map[string]interface{}{"remote": "--upload-pack=touch x"}, toolexecutor.FailureRecoverable},
		{"git_checkout", map[string]interface{}{"branch_name": "-f"}, toolexecutor.FailureRecoverable},
		{"git_delete_branch", map[string]interface{}{"branch_name": "-D"}, toolexecutor.FailureRecoverable},
		{"git_rebase", map[string]interface{}{"upstream": "--onto"}, toolexecutor.FailureRecoverable},
		{"git_create_branch", map[string]interface{}{"branch_name": "-f"}, toolexecutor.FailureBlocking},
		{"git_create_branch", map[string]interface{}{"branch_name": "x", "base_branch": " --orphan"}, toolexecutor.FailureBlocking},
		{"git_fetch", map[string]interface{}{"remote": "--upload-pack=sh"}, toolexecutor.FailureBlocking},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %v", tt.tool, tt.args), func(t *testing.T) {
			runner := &fakeRunner{}
			reg, wc := setup(t, runner)

			_, err := invoke(t, reg, wc, tt.tool, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must not start with '-'")
			assert.Equal(t, tt.kind, toolexecutor.ClassifyFailure(err))
			assert.Empty(t, runner.calls, "git must not run")
		})
	}
}

func TestGitCheckout_OnlySwitchesBranches(t *testing.T) {
	runner := &fakeRunner{results: map[string]Result{
		"switch .": {ExitCode: 128, Stderr: "fatal: invalid reference: ."},
	}}
	reg, wc := setup(t, runner)

	_, err := invoke(t, reg, wc, "git_checkout", map[string]interface{}{"branch_name": "."})
	require.Error(t, err)
	assert.Equal(t, [][]string{{"switch", "."}}, runner.calls)
}

func TestEngine_OptionLikeTargetNeverRuns(t *testing.T) {
	runner := &fakeRunner{}
	reg, wc := setup(t, runner)

	plan, err := toolexecutor.NewValidator(reg).Validate([]toolexecutor.CandidateCall{
		{Name: "git_reset", Arguments: map[string]interface{}{"target": "--hard", "mode": "mixed"}},
	})
	require.NoError(t, err)

	approvals := &toolexecutor.MockApprovalHandler{}
	engine, err := toolexecutor.NewEngine(toolexecutor.EngineConfig{
		Registry:   reg,
		Classifier: Classifier(),
		Approvals:  toolexecutor.NewApprovalManager(approvals),
	})
	require.NoError(t, err)

	report, err := engine.Execute(context.Background(), "run-1", plan, wc)
	require.NoError(t, err)
	require.Len(t, report.Steps, 1)
	assert.Equal(t, toolexecutor.StepFailure, report.Steps[0].Status)
	assert.Empty(t, runner.calls)
	assert.Empty(t, approvals.Requests())
}

func TestClassifier(t *testing.T) {
	c := Classifier()

	tests := []struct {
		call        toolexecutor.ToolCall
		destructive bool
	}{
		{toolexecutor.ToolCall{Name: "git_revert_last_commit", Args: toolexecutor.Args{}}, true},
		{toolexecutor.ToolCall{Name: "git_rebase", Args: toolexecutor.Args{"upstream": "main"}}, true},
		{toolexecutor.ToolCall{Name: "git_clean", Args: toolexecutor.Args{"force": true, "directories": true}}, true},
		{toolexecutor.ToolCall{Name: "git_reset", Args: toolexecutor.Args{"target": "HEAD", "mode": "hard"}}, true},
		{toolexecutor.ToolCall{Name: "git_reset", Args: toolexecutor.Args{"target": "HEAD", "mode": "mixed"}}, false},
		{toolexecutor.ToolCall{Name: "git_delete_branch", Args: toolexecutor.Args{"branch_name": "x", "force": true}}, true},
		{toolexecutor.ToolCall{Name: "git_delete_branch", Args: toolexecutor.Args{"branch_name": "x", "force": false}}, false},
		{toolexecutor.ToolCall{Name: "git_push", Args: toolexecutor.Args{"force": true}}, true},
		{toolexecutor.ToolCall{Name: "git_push", Args: toolexecutor.Args{"force": false}}, false},
		{toolexecutor.ToolCall{Name: "git_commit", Args: toolexecutor.Args{"message": "m"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.call.Describe(), func(t *testing.T) {
			assert.Equal(t, tt.destructive, c.IsDestructive(tt.call))
		})
	}
}
