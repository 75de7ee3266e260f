package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harun/toolpilot/internal/config"
	"github.com/harun/toolpilot/internal/metrics"
	"github.com/harun/toolpilot/internal/observability"
	"github.com/harun/toolpilot/internal/render"
	"github.com/harun/toolpilot/pkg/agent"
	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// listToolsArg lists the agent's tools instead of running an instruction
const listToolsArg = "list-tools"

func newAgentCmd(a *app, def agentDef) *cobra.Command {
	return &cobra.Command{
		Use:     def.name + " <instruction | " + listToolsArg + ">",
		Short:   def.short,
		Example: def.example + "\n  toolpilot " + def.name + " " + listToolsArg,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAgent(cmd.Context(), def, args)
		},
	}
}

func (a *app) runAgent(ctx context.Context, def agentDef, args []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return failure(err)
	}

	log, err := a.setupLogger(cfg)
	if err != nil {
		return failure(err)
	}
	defer log.Close()

	reg, err := a.buildRegistry(def, cfg)
	if err != nil {
		return failure(err)
	}

	printer := render.NewPrinter(a.stdout, render.Options{Highlight: a.isTerminal()})

	if len(args) == 1 && args[0] == listToolsArg {
		printer.ToolList(def.name, reg.ListAll())
		return nil
	}

	instruction := strings.TrimSpace(strings.Join(args, " "))
	if instruction == "" {
		return failure(fmt.Errorf("instruction cannot be empty"))
	}

	if err := cfg.Validate(); err != nil {
		return failure(err)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return failure(err)
	}

	wd, err := a.getwd()
	if err != nil {
		return failure(fmt.Errorf("failed to get working directory: %w", err))
	}
	wc, err := toolexecutor.NewWorkContext(wd)
	if err != nil {
		return failure(err)
	}

	provider, err := a.providers.NewProvider(ctx, agent.ProviderConfig{
		Name:        cfg.Provider.Name,
		Model:       cfg.Provider.Model,
		APIKey:      cfg.Provider.APIKey,
		BaseURL:     cfg.Provider.BaseURL,
		Timeout:     cfg.Provider.Timeout(),
		Temperature: cfg.Provider.Temperature,
		MaxTokens:   cfg.Provider.MaxTokens,
	})
	if err != nil {
		return failure(err)
	}

	planner, err := agent.NewModelPlanner(provider, agent.PlannerConfig{
		Model:       cfg.Provider.Model,
		Temperature: cfg.Provider.Temperature,
		MaxTokens:   cfg.Provider.MaxTokens,
		Timeout:     cfg.Provider.Timeout(),
		Domain:      def.domain,
		WorkingDir:  wc.Dir(),
		Logger:      log.Component("planner"),
	})
	if err != nil {
		return failure(err)
	}

	runID := uuid.New().String()
	m := metrics.NewMetrics()
	observers := toolexecutor.Observers{render.NewProgress(printer)}

	audit, err := observability.OpenAuditLogger(cfg.Logging.AuditFile, def.name)
	if err != nil {
		log.Warn().Err(err).Msg("Audit log unavailable")
	} else {
		defer audit.Close()
		audit.SetRunID(runID)
		observers = append(observers, audit)
	}

	engine, err := toolexecutor.NewEngine(toolexecutor.EngineConfig{
		Registry:   reg,
		Classifier: def.classifier(),
		Approvals:  toolexecutor.NewApprovalManager(a.approvalHandler(cfg)),
		Logger:     log.Component("engine"),
		Metrics:    m,
		Observer:   observers,
	})
	if err != nil {
		return failure(err)
	}

	var store agent.HistoryStore
	if s := openHistory(cfg, log.Component("history")); s != nil {
		defer s.Close()
		store = s
	}

	runner, err := agent.NewRunner(agent.Config{
		Agent:        def.name,
		Planner:      planner,
		Registry:     reg,
		Engine:       engine,
		History:      store,
		ContextTurns: cfg.History.ContextTurns,
		Metrics:      m,
		Logger:       log.Component("runner"),
	})
	if err != nil {
		return failure(err)
	}

	outcome, err := runner.Run(ctx, agent.RunParams{
		Instruction: instruction,
		WorkContext: wc,
		DryRun:      a.dryRun,
		RunID:       runID,
	})
	if err != nil {
		return failure(err)
	}

	if outcome.Kind == agent.OutcomeDryRun {
		printer.PlanPreview(outcome.Plan, def.classifier())
	}
	printer.Outcome(outcome)

	if audit != nil {
		audit.RecordRun(outcome.RunID, string(outcome.Kind), outcome.ExitCode, outcome.Instruction)
	}
	if a.metricsOut != "" {
		if err := m.WriteToTextfile(a.metricsOut); err != nil {
			log.Warn().Err(err).Msg("Failed to write metrics")
		}
	}

	if outcome.ExitCode != ExitOK {
		return &ExitError{Code: outcome.ExitCode}
	}
	return nil
}

// approvalHandler prompts on the terminal unless confirmation is waived
func (a *app) approvalHandler(cfg *config.Config) toolexecutor.ApprovalHandler {
	if cfg.Confirm.AutoApprove {
		return toolexecutor.AutoApproveHandler{}
	}
	return toolexecutor.NewCLIApprovalHandler(a.stdin, a.stdout)
}
