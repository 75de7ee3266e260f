package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file, the
environment and .env. The API key is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return failure(err)
			}
			fmt.Fprintln(a.stdout, cfg.String())

			if err := cfg.Validate(); err != nil {
				return failure(err)
			}
			return nil
		},
	}
}
