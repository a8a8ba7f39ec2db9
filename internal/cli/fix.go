package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dshills/vaahai/internal/changes"
	"github.com/dshills/vaahai/internal/navigator"
	"github.com/dshills/vaahai/internal/review"
	"github.com/dshills/vaahai/internal/runner"
)

var (
	flagFixPlain     bool
	flagFixBatch     bool
	flagFixDryRun    bool
	flagFixNoConfirm bool
)

var fixCmd = &cobra.Command{
	Use:   "fix <path>",
	Short: "Review a file or directory and step through suggested fixes",
	Long: "Review the target, then walk the issues one at a time. Accepting an issue with a " +
		"suggested fix edits the file after backing it up; undo restores the last change.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, r, ok := prepare(cmd)
		if !ok {
			return nil
		}
		res := reviewPath(e, r, args[0])
		if res.Status == review.StatusError {
			fail(cmd, "%s", res.Message)
			return nil
		}
		recordHistory(e, res, flagNoHistory)
		if res.TotalIssues == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No issues found.")
			return nil
		}

		mcfg := changeConfig(e)
		ask := mcfg.ConfirmChanges
		interactive := !flagFixPlain && isTerminal()

		opts := []changes.Option{changes.WithLogger(e.logger)}
		var in *bufio.Reader
		switch {
		case interactive:
			// The TUI asks before applying.
			opts = append(opts, changes.WithConfirmer(changes.AlwaysConfirm))
		default:
			in = bufio.NewReader(cmd.InOrStdin())
			opts = append(opts, changes.WithConfirmer(changes.NewPromptConfirmer(in, cmd.OutOrStdout())))
		}
		mgr, err := changes.New(mcfg, opts...)
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}

		s := navigator.NewSession(res, mgr)
		if flagFixBatch {
			s.Handle(navigator.SymToggleBatch)
		}

		if interactive {
			if err := navigator.Run(s, ask); err != nil {
				fail(cmd, "%v", err)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), navigator.SummaryView(s.Summary()))
			return nil
		}
		if err := navigator.RunPlain(s, in, cmd.OutOrStdout()); err != nil {
			fail(cmd, "%v", err)
		}
		return nil
	},
}

func reviewPath(e *env, r *runner.Runner, path string) *review.AggregateResult {
	info, err := os.Stat(path)
	if err != nil {
		return review.ErrorResult(fmt.Sprintf("cannot access %s: %v", path, err))
	}
	if !info.IsDir() {
		return r.RunOnFile(path)
	}
	return r.RunOnDirectory(path, runner.DirOptions{
		Extensions:  e.cfg.Walk.Extensions,
		Recursive:   e.cfg.Walk.Recursive,
		ExcludeDirs: e.cfg.Walk.ExcludeDirs,
		Callback:    progressCallback(e),
	})
}

func changeConfig(e *env) changes.Config {
	fm := e.cfg.FileModification
	c := changes.Config{
		BackupDir:        fm.BackupDir,
		MaxBackupAgeDays: fm.MaxBackupAgeDays,
		ConfirmChanges:   fm.ConfirmChanges && !flagFixNoConfirm,
		DryRun:           fm.DryRun || flagFixDryRun,
		CreateGitCommits: fm.CreateGitCommits,
	}
	if c.BackupDir == "" {
		c.BackupDir = changes.DefaultConfig().BackupDir
	}
	return c
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func init() {
	addSelectionFlags(fixCmd)
	fixCmd.Flags().BoolVar(&flagFixPlain, "plain", false, "Use the line-oriented prompt instead of the full-screen interface")
	fixCmd.Flags().BoolVar(&flagFixBatch, "batch", false, "Start in batch mode: queue accepted fixes and apply them together")
	fixCmd.Flags().BoolVar(&flagFixDryRun, "dry-run", false, "Record accepted fixes without writing files")
	fixCmd.Flags().BoolVar(&flagFixNoConfirm, "no-confirm", false, "Apply accepted fixes without a confirmation prompt")
}
