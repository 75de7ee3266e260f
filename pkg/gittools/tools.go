package gittools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// Agent is the agent name the git tools are registered under
const Agent = "git"

// Domain describes the git tools to the planner
const Domain = "operating inside a Git repository. " +
	"Match the request to Git tools (for example 'status' to git_status, 'commit' to git_commit, 'create branch' to git_create_branch). " +
	"Stage files with git_add before git_commit unless the user says they are already staged."

type failureMode int

const (
	recoverable failureMode = iota
	blocking
)

var commitHashPattern = regexp.MustCompile(`\[[^\s\]]+\s+(?:\(root-commit\)\s+)?([0-9a-f]+)\]`)

// gitTools binds the tool handlers to a command runner
type gitTools struct {
	runner CommandRunner
}

// Tools returns the static git tool table in listing order
func Tools(runner CommandRunner) []toolexecutor.Tool {
	g := &gitTools{runner: runner}

	return []toolexecutor.Tool{
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_status",
				Description: "Show the working tree status: staged, unstaged and untracked files and the current branch.",
			},
			Handler: g.status,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_add",
				Description: "Add file contents to the index (stage files). Use '.' for all changes.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "files", Type: toolexecutor.TypeString, Description: "Files or directories to stage", Default: "."},
				},
			},
			Handler: g.add,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_commit",
				Description: "Record staged changes to the repository with a message.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "message", Type: toolexecutor.TypeString, Description: "The commit message", Required: true},
				},
			},
			Handler: g.commit,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_revert_last_commit",
				Description: "Undo the last commit by creating a new commit that reverts it.",
			},
			Handler: g.revertLastCommit,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_create_branch",
				Description: "Create a new branch, optionally from a base branch.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "branch_name", Type: toolexecutor.TypeString, Description: "Name of the new branch", Required: true},
					{Name: "base_branch", Type: toolexecutor.TypeOptionalString, Description: "Branch to start from; the current branch when omitted"},
				},
			},
			Handler: g.createBranch,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_checkout",
				Description: "Switch to an existing local branch.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "branch_name", Type: toolexecutor.TypeString, Description: "Branch to switch to", Required: true},
				},
			},
			Handler: g.checkout,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_fetch",
				Description: "Download objects and refs from a remote, or from all remotes.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "remote", Type: toolexecutor.TypeOptionalString, Description: "Remote to fetch; all remotes when omitted"},
				},
			},
			Handler: g.fetch,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_pull",
				Description: "Fetch from a remote branch and integrate it into the current branch.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "branch", Type: toolexecutor.TypeString, Description: "Branch to pull", Default: "main"},
					{Name: "remote", Type: toolexecutor.TypeString, Description: "Remote to pull from", Default: "origin"},
				},
			},
			Handler: g.pull,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_push",
				Description: "Update a remote branch with local commits.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "branch", Type: toolexecutor.TypeString, Description: "Branch to push", Default: "main"},
					{Name: "remote", Type: toolexecutor.TypeString, Description: "Remote to push to", Default: "origin"},
					{Name: "force", Type: toolexecutor.TypeBoolean, Description: "Overwrite the remote branch history", Default: false},
				},
			},
			Handler: g.push,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_init",
				Description: "Create an empty Git repository or reinitialize an existing one in the current directory.",
			},
			Handler: g.initRepo,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_log",
				Description: "Show recent commits as a table.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "num_commits", Type: toolexecutor.TypeInteger, Description: "Number of recent commits to show", Default: 5},
				},
			},
			Handler: g.logCommits,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_diff",
				Description: "Show changes in the working tree, or staged changes.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "staged", Type: toolexecutor.TypeBoolean, Description: "Show staged changes instead of unstaged ones", Default: false},
				},
			},
			Handler: g.diff,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_reset",
				Description: "Reset the current branch to a commit. Mode hard discards working tree changes.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "target", Type: toolexecutor.TypeString, Description: "Commit to reset to", Default: "HEAD"},
					{Name: "mode", Type: toolexecutor.TypeString, Description: "Reset mode: soft, mixed or hard", Default: "mixed",
						Enum: []interface{}{"soft", "mixed", "hard"}},
				},
			},
			Handler: g.reset,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_delete_branch",
				Description: "Delete a local branch. Force deletes it even if unmerged.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "branch_name", Type: toolexecutor.TypeString, Description: "Branch to delete", Required: true},
					{Name: "force", Type: toolexecutor.TypeBoolean, Description: "Delete even if not fully merged", Default: false},
				},
			},
			Handler: g.deleteBranch,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_clean",
				Description: "Permanently remove untracked files from the working tree.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "force", Type: toolexecutor.TypeBoolean, Description: "Must be true to confirm removal", Required: true,
						Enum: []interface{}{true}},
					{Name: "directories", Type: toolexecutor.TypeBoolean, Description: "Also remove untracked directories", Default: true},
				},
			},
			Handler: g.clean,
		},
		{
			Spec: toolexecutor.ToolSpec{
				Name:        "git_rebase",
				Description: "Reapply commits of the current branch on top of another branch.",
				Parameters: []toolexecutor.ToolParameter{
					{Name: "upstream", Type: toolexecutor.TypeString, Description: "Branch to rebase onto", Required: true},
				},
			},
			Handler: g.rebase,
		},
	}
}

// Register adds the git tools allowed by policy to the registry
func Register(reg *toolexecutor.Registry, runner CommandRunner, policy *toolexecutor.ToolPolicy) error {
	return reg.RegisterTools(Tools(runner), policy)
}

// Classifier returns the confirmation rules for git tools
func Classifier() *toolexecutor.Classifier {
	return toolexecutor.NewClassifier("git_revert_last_commit", "git_rebase", "git_clean").
		WithRule("git_reset", toolexecutor.ArgEquals("mode", "hard")).
		WithRule("git_delete_branch", toolexecutor.ArgEquals("force", true)).
		WithRule("git_push", toolexecutor.ArgEquals("force", true))
}

// git runs a command and maps failures to tool failures
func (g *gitTools) git(ctx context.Context, wc *toolexecutor.WorkContext, mode failureMode, action string, args ...string) (Result, error) {
	if wc == nil {
		return Result{}, toolexecutor.Fatal("no working directory", nil)
	}

	res, err := g.runner.Run(ctx, wc.Dir(), args...)
	if err != nil {
		if errors.Is(err, ErrGitNotFound) {
			return res, toolexecutor.Fatal("git is not installed or not in PATH", err)
		}
		if ctx.Err() != nil {
			return res, toolexecutor.Fatal(action+" interrupted", err)
		}
		return res, toolexecutor.Fatal(action+" failed", err)
	}

	if res.ExitCode != 0 {
		cause := errors.New(gitMessage(res))
		msg := action + " failed"
		if strings.Contains(strings.ToLower(res.Stderr), "not a git repository") {
			msg = "not a git repository (run git_init first)"
		}
		if mode == blocking {
			return res, toolexecutor.Blocking(msg, cause)
		}
		return res, toolexecutor.Recoverable(msg, cause)
	}

	return res, nil
}

// refArg is a ref or remote name taken from the plan
type refArg struct {
	param string
	value string
}

// checkRefs fails when a ref or remote would be parsed by git as an option.
// Such values could change what the command does after classification,
// e.g. target="--hard" on a mixed reset.
func checkRefs(mode failureMode, refs ...refArg) error {
	for _, r := range refs {
		if strings.HasPrefix(strings.TrimSpace(r.value), "-") {
			msg := fmt.Sprintf("%s %q must not start with '-'", r.param, r.value)
			if mode == blocking {
				return toolexecutor.Blocking(msg, nil)
			}
			return toolexecutor.Recoverable(msg, nil)
		}
	}
	return nil
}

func gitMessage(res Result) string {
	if res.Stderr != "" {
		return res.Stderr
	}
	if res.Stdout != "" {
		return res.Stdout
	}
	return fmt.Sprintf("git exited with status %d", res.ExitCode)
}

func (g *gitTools) status(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	res, err := g.git(ctx, wc, recoverable, "git status", "status", "--porcelain")
	if err != nil {
		return toolexecutor.Output{}, err
	}

	staged, unstaged, untracked := parsePorcelain(res.Stdout)

	branch := "unknown branch"
	if b, err := g.runner.Run(ctx, wc.Dir(), "rev-parse", "--abbrev-ref", "HEAD"); err == nil && b.ExitCode == 0 {
		branch = b.Stdout
	}

	if len(staged)+len(unstaged)+len(untracked) == 0 {
		return toolexecutor.Output{
			Summary: fmt.Sprintf("Working tree clean (on branch %s)", branch),
		}, nil
	}

	table := &toolexecutor.Table{Title: "On branch " + branch, Columns: []string{"State", "File"}}
	var parts []string
	for _, group := range []struct {
		label string
		files []string
	}{
		{"staged", staged},
		{"unstaged", unstaged},
		{"untracked", untracked},
	} {
		for _, f := range group.files {
			table.AddRow(group.label, f)
		}
		if len(group.files) > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", len(group.files), group.label))
		}
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("%s (on branch %s)", strings.Join(parts, ", "), branch),
		Data:    table,
	}, nil
}

// parsePorcelain splits `git status --porcelain` output into sorted, unique groups
func parsePorcelain(out string) (staged, unstaged, untracked []string) {
	sets := [3]map[string]bool{{}, {}, {}}

	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		x, y, file := line[0], line[1], strings.TrimSpace(line[3:])

		if x == '?' && y == '?' {
			sets[2][file] = true
			continue
		}
		if x != ' ' && x != '?' {
			sets[0][file] = true
		}
		if y != ' ' && y != '?' {
			sets[1][file] = true
		}
	}

	sorted := func(m map[string]bool) []string {
		if len(m) == 0 {
			return nil
		}
		out := make([]string, 0, len(m))
		for k := range m {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}
	return sorted(sets[0]), sorted(sets[1]), sorted(sets[2])
}

func (g *gitTools) add(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	files := args.String("files")
	cmd := append([]string{"add", "--"}, strings.Fields(files)...)
	if _, err := g.git(ctx, wc, blocking, "git add", cmd...); err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{Summary: fmt.Sprintf("Staged '%s'", files)}, nil
}

func (g *gitTools) commit(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	message := args.String("message")
	if strings.TrimSpace(message) == "" {
		return toolexecutor.Output{}, toolexecutor.Recoverable("commit message cannot be empty", nil)
	}

	res, err := g.git(ctx, wc, recoverable, "git commit", "commit", "-m", message)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	hash := "unknown"
	if m := commitHashPattern.FindStringSubmatch(res.Stdout); m != nil {
		hash = m[1]
	}
	return toolexecutor.Output{
		Summary: fmt.Sprintf("Committed %s: %s", hash, message),
		Data:    map[string]string{"commit": hash, "message": message},
	}, nil
}

func (g *gitTools) revertLastCommit(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	res, err := g.git(ctx, wc, recoverable, "git revert", "revert", "HEAD", "--no-edit")
	if err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{Summary: "Reverted the last commit", Data: res.Stdout}, nil
}

func (g *gitTools) createBranch(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	name := args.String("branch_name")
	if strings.TrimSpace(name) == "" {
		return toolexecutor.Output{}, toolexecutor.Blocking("branch name cannot be empty", nil)
	}
	base, _ := args.OptString("base_branch")
	if err := checkRefs(blocking, refArg{"branch_name", name}, refArg{"base_branch", base}); err != nil {
		return toolexecutor.Output{}, err
	}

	cmd := []string{"branch", name}
	summary := fmt.Sprintf("Created branch '%s' from the current branch", name)
	if base != "" {
		cmd = append(cmd, base)
		summary = fmt.Sprintf("Created branch '%s' from '%s'", name, base)
	}

	if _, err := g.git(ctx, wc, blocking, "git branch", cmd...); err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{Summary: summary}, nil
}

func (g *gitTools) checkout(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	name := args.String("branch_name")
	if err := checkRefs(recoverable, refArg{"branch_name", name}); err != nil {
		return toolexecutor.Output{}, err
	}
	// switch only accepts branches, so paths like "." never discard changes
	if _, err := g.git(ctx, wc, recoverable, "git switch", "switch", name); err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{Summary: fmt.Sprintf("Switched to branch '%s'", name)}, nil
}

func (g *gitTools) fetch(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	cmd := []string{"fetch"}
	summary := "Fetched from all remotes"
	if remote, ok := args.OptString("remote"); ok && remote != "" {
		if err := checkRefs(blocking, refArg{"remote", remote}); err != nil {
			return toolexecutor.Output{}, err
		}
		cmd = append(cmd, remote)
		summary = fmt.Sprintf("Fetched from '%s'", remote)
	} else {
		cmd = append(cmd, "--all")
	}

	if _, err := g.git(ctx, wc, blocking, "git fetch", cmd...); err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{Summary: summary}, nil
}

func (g *gitTools) pull(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	branch, remote := args.String("branch"), args.String("remote")
	if err := checkRefs(recoverable, refArg{"remote", remote}, refArg{"branch", branch}); err != nil {
		return toolexecutor.Output{}, err
	}
	res, err := g.git(ctx, wc, recoverable, "git pull", "pull", remote, branch)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	summary := fmt.Sprintf("Pulled %s/%s", remote, branch)
	if strings.Contains(res.Stdout, "Already up to date") {
		summary += " (already up to date)"
	}
	return toolexecutor.Output{Summary: summary, Data: res.Stdout}, nil
}

func (g *gitTools) push(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	branch, remote := args.String("branch"), args.String("remote")
	if err := checkRefs(recoverable, refArg{"remote", remote}, refArg{"branch", branch}); err != nil {
		return toolexecutor.Output{}, err
	}
	cmd := []string{"push", remote, branch}
	summary := fmt.Sprintf("Pushed to %s/%s", remote, branch)
	if args.Bool("force") {
		cmd = []string{"push", "--force", remote, branch}
		summary = fmt.Sprintf("Force-pushed to %s/%s", remote, branch)
	}

	if _, err := g.git(ctx, wc, recoverable, "git push", cmd...); err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{Summary: summary}, nil
}

func (g *gitTools) initRepo(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	if wc == nil {
		return toolexecutor.Output{}, toolexecutor.Fatal("no working directory", nil)
	}

	existed := false
	if info, err := os.Stat(filepath.Join(wc.Dir(), ".git")); err == nil && info.IsDir() {
		existed = true
	}

	if _, err := g.git(ctx, wc, recoverable, "git init", "init"); err != nil {
		return toolexecutor.Output{}, err
	}

	if existed {
		return toolexecutor.Output{Summary: "Reinitialized the existing repository in " + wc.Dir()}, nil
	}
	return toolexecutor.Output{Summary: "Initialized a repository in " + wc.Dir()}, nil
}

func (g *gitTools) logCommits(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	n := args.Int("num_commits")
	if n <= 0 {
		return toolexecutor.Output{}, toolexecutor.Recoverable("num_commits must be positive", nil)
	}

	res, err := g.git(ctx, wc, recoverable, "git log",
		"log", fmt.Sprintf("-n%d", n), "--pretty=format:%h|%an|%ad|%s", "--date=short")
	if err != nil {
		return toolexecutor.Output{}, err
	}

	if res.Stdout == "" {
		return toolexecutor.Output{Summary: "No commits found"}, nil
	}

	table := &toolexecutor.Table{
		Title:   fmt.Sprintf("Last %d commits", n),
		Columns: []string{"Hash", "Author", "Date", "Message"},
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		parts := strings.SplitN(line, "|", 4)
		if len(parts) == 4 {
			table.AddRow(parts...)
		}
	}

	return toolexecutor.Output{
		Summary: fmt.Sprintf("Showing %d commits", len(table.Rows)),
		Data:    table,
	}, nil
}

func (g *gitTools) diff(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	cmd := []string{"diff"}
	what := "unstaged"
	if args.Bool("staged") {
		cmd = append(cmd, "--staged")
		what = "staged"
	}

	res, err := g.git(ctx, wc, recoverable, "git diff", cmd...)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	if res.Stdout == "" {
		return toolexecutor.Output{Summary: fmt.Sprintf("No %s changes", what)}, nil
	}
	return toolexecutor.Output{Summary: fmt.Sprintf("Showing %s changes", what), Data: res.Stdout}, nil
}

func (g *gitTools) reset(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	target, mode := args.String("target"), args.String("mode")
	if err := checkRefs(recoverable, refArg{"target", target}); err != nil {
		return toolexecutor.Output{}, err
	}
	if _, err := g.git(ctx, wc, recoverable, "git reset", "reset", "--"+mode, target); err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{Summary: fmt.Sprintf("Reset (%s) to %s", mode, target)}, nil
}

func (g *gitTools) deleteBranch(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	name := args.String("branch_name")
	if err := checkRefs(recoverable, refArg{"branch_name", name}); err != nil {
		return toolexecutor.Output{}, err
	}
	flag := "-d"
	if args.Bool("force") {
		flag = "-D"
	}
	if _, err := g.git(ctx, wc, recoverable, "git branch delete", "branch", flag, name); err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{Summary: fmt.Sprintf("Deleted branch '%s'", name)}, nil
}

func (g *gitTools) clean(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	if !args.Bool("force") {
		return toolexecutor.Output{}, toolexecutor.Recoverable("git clean requires force=true", nil)
	}

	cmd := []string{"clean", "-f"}
	if args.Bool("directories") {
		cmd = append(cmd, "-d")
	}

	res, err := g.git(ctx, wc, recoverable, "git clean", cmd...)
	if err != nil {
		return toolexecutor.Output{}, err
	}

	var removed []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if f := strings.TrimPrefix(line, "Removing "); f != line {
			removed = append(removed, f)
		}
	}
	return toolexecutor.Output{
		Summary: fmt.Sprintf("Removed %d untracked entries", len(removed)),
		Data:    removed,
	}, nil
}

func (g *gitTools) rebase(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
	upstream := args.String("upstream")
	if err := checkRefs(recoverable, refArg{"upstream", upstream}); err != nil {
		return toolexecutor.Output{}, err
	}
	res, err := g.git(ctx, wc, recoverable, "git rebase", "rebase", upstream)
	if err != nil {
		return toolexecutor.Output{}, err
	}
	return toolexecutor.Output{Summary: fmt.Sprintf("Rebased onto '%s'", upstream), Data: res.Stdout}, nil
}
