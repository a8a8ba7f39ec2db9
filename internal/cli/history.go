package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dshills/vaahai/internal/history"
)

var (
	flagHistoryLimit  int
	flagHistoryFormat string
	flagHistoryDays   int
	flagHistorySteps  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past review runs",
}

func openHistory(cmd *cobra.Command) (*history.Store, bool) {
	e, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		exitCode = ExitUsageError
		return nil, false
	}
	path := expandHome(e.cfg.History.Path)
	if path == "" {
		if path, err = history.DefaultPath(); err != nil {
			fail(cmd, "%v", err)
			return nil, false
		}
	}
	st, err := history.Open(path)
	if err != nil {
		fail(cmd, "%v", err)
		return nil, false
	}
	return st, true
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, ok := openHistory(cmd)
		if !ok {
			return nil
		}
		defer st.Close()

		runs, err := st.List(flagHistoryLimit)
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("RUN", "STARTED", "TARGET", "ISSUES", "HIGHEST", "FAILED").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		for _, r := range runs {
			highest := string(r.HighestSeverity)
			if highest == "" {
				highest = "-"
			}
			t.Row(r.ID, r.StartedAt.Local().Format(time.DateTime), r.Target,
				strconv.Itoa(r.TotalIssues), highest, strconv.Itoa(r.FailedSteps))
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the stored report of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, ok := openHistory(cmd)
		if !ok {
			return nil
		}
		defer st.Close()

		if flagHistorySteps {
			return showSteps(cmd, st, args[0])
		}
		res, err := st.Result(args[0])
		if errors.Is(err, history.ErrNotFound) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: no run with id %s\n", args[0])
			exitCode = ExitUsageError
			return nil
		}
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		if err := writeResult(cmd, res, flagHistoryFormat); err != nil {
			fail(cmd, "%v", err)
		}
		return nil
	},
}

func showSteps(cmd *cobra.Command, st *history.Store, id string) error {
	rows, err := st.Steps(id)
	if err != nil {
		fail(cmd, "%v", err)
		return nil
	}
	if len(rows) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: no steps recorded for run %s\n", id)
		exitCode = ExitUsageError
		return nil
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STEP", "FILE", "STATUS", "ISSUES", "SECONDS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		t.Row(r.StepID, r.FilePath, string(r.Status), strconv.Itoa(r.Issues), strconv.FormatFloat(r.Duration, 'f', 3, 64))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.String())
	return nil
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than a number of days",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, ok := openHistory(cmd)
		if !ok {
			return nil
		}
		defer st.Close()

		cutoff := time.Now().Add(-time.Duration(flagHistoryDays) * 24 * time.Hour)
		n, err := st.Prune(cutoff)
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s).\n", n)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyListCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Maximum number of runs to list")
	historyShowCmd.Flags().StringVar(&flagHistoryFormat, "format", "text", "Output format (text, json, markdown, sarif)")
	historyShowCmd.Flags().BoolVar(&flagHistorySteps, "steps", false, "List per-step rows instead of the report")
	historyPruneCmd.Flags().IntVar(&flagHistoryDays, "older-than", 90, "Age in days")
}
