package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harun/toolpilot/pkg/agent"
	"github.com/harun/toolpilot/pkg/gittools"
)

const version = "0.1.0"

// app holds the collaborators and flag values shared by all commands.
// Tests replace the collaborators.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	providers  agent.ProviderCreator
	gitRunner  gittools.CommandRunner
	fs         afero.Fs
	getwd      func() (string, error)
	isTerminal func() bool
	envFile    string

	// Global flags
	cfgFile    string
	logLevel   string
	yes        bool
	dryRun     bool
	metricsOut string
}

func newApp() *app {
	return &app{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		providers: &agent.ProviderFactory{},
		gitRunner: gittools.NewExecRunner(),
		fs:        afero.NewOsFs(),
		getwd:     os.Getwd,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
		envFile: ".env",
	}
}

// newRootCmd builds the command tree around a
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toolpilot",
		Short: "toolpilot - natural-language Git and filesystem assistant",
		Long: `toolpilot turns an instruction such as "stage everything and commit with
message 'wip'" into a validated plan of Git or filesystem tool calls and runs
it step by step. Destructive steps ask for confirmation first.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.toolpilot/config.json)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides logging.level")
	rootCmd.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "approve destructive steps without asking")
	rootCmd.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "validate and print the plan without executing it")
	rootCmd.PersistentFlags().StringVar(&a.metricsOut, "metrics-out", "", "write Prometheus text metrics to this file on exit")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	for _, def := range agents {
		rootCmd.AddCommand(newAgentCmd(a, def))
	}
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
// This is called by main.main().
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return execute(ctx, newApp(), os.Args[1:])
}

func execute(ctx context.Context, a *app, args []string) int {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}

	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return ExitFailure
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
