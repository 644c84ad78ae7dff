package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/openfroyo/quicksetup/pkg/handlers"
)

// Options carries what the commands need from the process.
type Options struct {
	Version   string
	Commit    string
	BuildDate string

	// Env is the host environment leaf commands act on.
	Env handlers.Env

	// Argv is the full command line, program name included. It becomes
	// the CMD variable.
	Argv []string

	Stdout io.Writer
	Stderr io.Writer
}

// Execute runs the root command with args.
func Execute(ctx context.Context, opts Options, args []string) error {
	rootCmd := newRootCommand(opts)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(opts Options) *cobra.Command {
	var (
		settingsPath string
		flags        actionFlags
	)

	rootCmd := &cobra.Command{
		Use:   "quicksetup (--install|--uninstall|--update) <config-file>",
		Short: "quicksetup - JSON-driven workstation setup",
		Long: `quicksetup renders a JSON config tree against the host.

Each node of the tree names a command: run a shell line, install a winget or
vcpkg package, create a directory, edit the registry, set a variable, branch
on a condition, run children in parallel or include another config file.
The same tree serves install, uninstall and update; each command picks the
behaviour for the selected action.`,
		Example: `  # Install everything described by setup.json
  quicksetup --install setup.json

  # Remove it again
  quicksetup --uninstall setup.json

  # Use a settings file for logging, metrics and history
  quicksetup --update setup.json --settings quicksetup.yaml`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", opts.Version, opts.Commit, opts.BuildDate),
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runConfig(cmd.Context(), opts, settingsPath, flags.action(), args[0])
		},
	}

	if opts.Stdout != nil {
		rootCmd.SetOut(opts.Stdout)
	}
	if opts.Stderr != nil {
		rootCmd.SetErr(opts.Stderr)
	}

	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "settings file (.yaml, .yml or .toml)")

	rootCmd.Flags().BoolVar(&flags.install, "install", false, "run the install behaviour of every command")
	rootCmd.Flags().BoolVar(&flags.uninstall, "uninstall", false, "run the uninstall behaviour of every command")
	rootCmd.Flags().BoolVar(&flags.update, "update", false, "run the update behaviour of every command")
	rootCmd.MarkFlagsMutuallyExclusive("install", "uninstall", "update")
	rootCmd.MarkFlagsOneRequired("install", "uninstall", "update")

	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(&settingsPath))

	return rootCmd
}
