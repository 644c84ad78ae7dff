package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/openfroyo/quicksetup/pkg/config"
	"github.com/openfroyo/quicksetup/pkg/stores"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	mutedStyle  = cellStyle.Foreground(colorMuted)
)

// historyColumns are the column widths of the history table.
var historyColumns = []struct {
	title string
	width int
}{
	{"ID", 38},
	{"ACTION", 11},
	{"STATUS", 11},
	{"STARTED", 21},
	{"DURATION", 10},
	{"CONFIG", 0},
}

func newHistoryCommand(settingsPath *string) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Long: `Show recent runs recorded in the history database, newest first.

The database location comes from the history section of the settings file
or QUICKSETUP_HISTORY_PATH.`,
		Example: `  # Last 20 runs
  quicksetup history

  # Last 5 runs as JSON
  quicksetup history --limit 5 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			settings, err := config.Load(*settingsPath)
			if err != nil {
				return exitErr(ExitStartup, err)
			}

			store, err := openHistory(cmd.Context(), settings.History.Path)
			if err != nil {
				return exitErr(ExitStartup, fmt.Errorf("failed to open history database: %w", err))
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit, 0)
			if err != nil {
				return exitErr(ExitStartup, err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	return cmd
}

func printRuns(w io.Writer, runs []*stores.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	header := make([]string, len(historyColumns))
	for i, col := range historyColumns {
		header[i] = headerStyle.Inherit(cellStyle).Width(col.width).Render(col.title)
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, header...))

	for _, run := range runs {
		duration := "-"
		if run.CompletedAt != nil {
			duration = run.Duration().Round(time.Millisecond).String()
		}

		cells := []string{
			mutedStyle.Width(historyColumns[0].width).Render(run.ID),
			cellStyle.Width(historyColumns[1].width).Render(run.Action),
			statusStyle(run.Status).Width(historyColumns[2].width).Render(string(run.Status)),
			cellStyle.Width(historyColumns[3].width).Render(run.StartedAt.Local().Format("2006-01-02 15:04:05")),
			cellStyle.Width(historyColumns[4].width).Render(duration),
			cellStyle.Render(run.ConfigPath),
		}
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
}

func statusStyle(status stores.RunStatus) lipgloss.Style {
	switch status {
	case stores.RunStatusSucceeded:
		return cellStyle.Foreground(colorSuccess)
	case stores.RunStatusFailed:
		return cellStyle.Foreground(colorWarning)
	case stores.RunStatusAborted:
		return cellStyle.Foreground(colorError).Bold(true)
	default:
		return cellStyle
	}
}
