package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harun/toolpilot/internal/render"
	"github.com/harun/toolpilot/pkg/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		agentName string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return failure(fmt.Errorf("--limit must be positive"))
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return failure(err)
			}
			log, err := a.setupLogger(cfg)
			if err != nil {
				return failure(err)
			}
			defer log.Close()

			printer := render.NewPrinter(a.stdout, render.Options{})
			if !cfg.History.Enabled {
				printer.Notice("Run history is disabled (history.enabled=false).")
				return nil
			}

			store, err := history.Open(history.Config{DBPath: cfg.History.Path, Logger: log.Component("history")})
			if err != nil {
				return failure(err)
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), agentName, limit)
			if err != nil {
				return failure(err)
			}
			printer.History(runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&agentName, "agent", "", "only show runs of this agent (git or file)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")

	return cmd
}
