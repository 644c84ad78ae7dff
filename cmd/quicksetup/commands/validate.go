package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/quicksetup/pkg/engine"
	"github.com/openfroyo/quicksetup/pkg/handlers"
)

func newValidateCommand(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Check a config file without running it",
		Long: `Check a config file without running anything.

This command checks:
  - the file is a JSON array
  - every node is an object with exactly one key
  - every key names a known command
  - if and paralel nodes carry their required fields, recursively

Included files are not followed since their paths may depend on variables
set while the tree runs.`,
		Example: `  quicksetup validate setup.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			path := args[0]

			registry, err := handlers.NewRegistry(opts.Env)
			if err != nil {
				return exitErr(ExitStartup, err)
			}

			tree, err := engine.LoadTree(path)
			if err != nil {
				return exitErr(ExitConfig, err)
			}

			if err := engine.Validate(registry, tree); err != nil {
				return exitErr(ExitConfig, fmt.Errorf("%s is invalid:\n%w", path, err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d top-level nodes, ok\n", path, len(tree))
			return nil
		},
	}

	return cmd
}
