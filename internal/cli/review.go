package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/vaahai/internal/gitctx"
	"github.com/dshills/vaahai/internal/history"
	"github.com/dshills/vaahai/internal/output"
	"github.com/dshills/vaahai/internal/redact"
	"github.com/dshills/vaahai/internal/review"
	"github.com/dshills/vaahai/internal/runner"
)

// Shared review flags
var (
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagMaxFindings int
	flagRules       string
	flagNoRedact    bool
	flagCategories  string
	flagSeverities  string
	flagTags        string
	flagSteps       string
	flagNoCache     bool
	flagNoHistory   bool
)

// Target-specific flags
var (
	flagExt         string
	flagNoRecursive bool
	flagExcludeDirs string
	flagPaths       string
	flagExclude     string
	flagStdinPath   string
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, info, low, medium, high, critical)")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "Maximum number of key findings")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction in output (use with caution)")
	addSelectionFlags(cmd)
}

// addSelectionFlags binds the flags that choose which steps run.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagCategories, "category", "", "Only run steps in these categories (comma-separated)")
	cmd.Flags().StringVar(&flagSeverities, "severity", "", "Only run steps with these severities (comma-separated)")
	cmd.Flags().StringVar(&flagTags, "tags", "", "Only run steps carrying any of these tags (comma-separated)")
	cmd.Flags().StringVar(&flagSteps, "steps", "", "Run exactly these step ids (comma-separated)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Do not read or write the result cache")
	cmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record this run in history")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = strconv.Itoa(flagMaxFindings)
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	if flagCategories != "" {
		m["steps.categories"] = flagCategories
	}
	if flagSeverities != "" {
		m["steps.severities"] = flagSeverities
	}
	if flagTags != "" {
		m["steps.tags"] = flagTags
	}
	if flagExt != "" {
		m["walk.extensions"] = flagExt
	}
	if flagExcludeDirs != "" {
		m["walk.excludeDirs"] = flagExcludeDirs
	}
	if flagNoRecursive {
		m["walk.recursive"] = "false"
	}
	if flagPaths != "" {
		m["include"] = flagPaths
	}
	return m
}

// prepare loads config and resolves the runner for a review command.
func prepare(cmd *cobra.Command) (*env, *runner.Runner, bool) {
	e, err := loadEnv(buildOverrides())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		exitCode = ExitUsageError
		return nil, nil, false
	}
	r, err := e.newRunner(splitComma(flagSteps), flagNoCache)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		exitCode = ExitUsageError
		return nil, nil, false
	}
	if len(r.Steps()) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error: no review steps match the selection")
		exitCode = ExitUsageError
		return nil, nil, false
	}
	return e, r, true
}

// report records, redacts, writes and gates a finished review.
func report(cmd *cobra.Command, e *env, res *review.AggregateResult) {
	recordHistory(e, res, flagNoHistory)

	if flagNoRedact {
		fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: secret redaction is disabled")
	} else if e.cfg.Privacy.RedactSecrets {
		redact.Result(res)
	}

	if err := writeResult(cmd, res, e.cfg.Format); err != nil {
		fail(cmd, "writing output: %v", err)
		return
	}

	if res.Status == review.StatusError {
		exitCode = ExitRuntimeError
		return
	}
	if review.MeetsThreshold(res.HighestSeverity(), e.cfg.FailOn) {
		exitCode = ExitFindings
	}
}

func writeResult(cmd *cobra.Command, res *review.AggregateResult, format string) error {
	if flagOut != "" {
		return output.WriteReport(res, format, flagOut)
	}
	w, err := output.GetWriter(format)
	if err != nil {
		return err
	}
	return w.Write(cmd.OutOrStdout(), res)
}

func recordHistory(e *env, res *review.AggregateResult, skip bool) {
	if skip || !e.cfg.History.Enabled || res.RunID == "" {
		return
	}
	path := expandHome(e.cfg.History.Path)
	if path == "" {
		p, err := history.DefaultPath()
		if err != nil {
			e.logger.Warn("history disabled", "err", err)
			return
		}
		path = p
	}
	st, err := history.Open(path)
	if err != nil {
		e.logger.Warn("cannot open history", "err", err)
		return
	}
	defer st.Close()
	if err := st.Record(res, time.Now()); err != nil {
		e.logger.Warn("cannot record run", "err", err)
	}
}

func progressCallback(e *env) func(path, state string) {
	return func(path, state string) {
		e.logger.Info("review", "file", path, "state", state)
	}
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code",
	Long:  "Run the configured review steps. Use subcommands to specify what to review.",
}

var reviewFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Review a single file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, r, ok := prepare(cmd)
		if !ok {
			return nil
		}
		report(cmd, e, r.RunOnFile(args[0]))
		return nil
	},
}

var reviewDirCmd = &cobra.Command{
	Use:   "dir <path>",
	Short: "Review every matching file under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, r, ok := prepare(cmd)
		if !ok {
			return nil
		}
		res := r.RunOnDirectory(args[0], runner.DirOptions{
			Extensions:  e.cfg.Walk.Extensions,
			Recursive:   e.cfg.Walk.Recursive,
			ExcludeDirs: e.cfg.Walk.ExcludeDirs,
			Callback:    progressCallback(e),
		})
		report(cmd, e, res)
		return nil
	},
}

var reviewStdinCmd = &cobra.Command{
	Use:   "stdin",
	Short: "Review code read from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, r, ok := prepare(cmd)
		if !ok {
			return nil
		}
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			fail(cmd, "reading stdin: %v", err)
			return nil
		}
		report(cmd, e, r.RunOnContent(string(content), flagStdinPath))
		return nil
	},
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index content)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGitReview(cmd, gitctx.ModeStaged)
	},
}

var reviewUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Review unstaged changes (working tree)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGitReview(cmd, gitctx.ModeUnstaged)
	},
}

func runGitReview(cmd *cobra.Command, mode gitctx.Mode) error {
	e, r, ok := prepare(cmd)
	if !ok {
		return nil
	}
	meta, err := gitctx.GetRepoMeta()
	if err != nil {
		fail(cmd, "%v", err)
		return nil
	}
	filter := gitctx.Filter{Include: e.cfg.Include, Exclude: e.cfg.Exclude}
	if flagExclude != "" {
		filter.Exclude = append(filter.Exclude, splitComma(flagExclude)...)
	}
	files, err := gitctx.ChangedFiles(mode, filter)
	if err != nil {
		fail(cmd, "%v", err)
		return nil
	}
	files = filterExtensions(files, e.cfg.Walk.Extensions)

	// git paths are relative to the repository root.
	read := func(path string) (string, error) {
		data, err := os.ReadFile(filepath.Join(meta.Root, path))
		return string(data), err
	}
	if mode == gitctx.ModeStaged {
		read = gitctx.StagedContent
	}
	res := r.RunOnFiles(string(mode), files, read, progressCallback(e))
	report(cmd, e, res)
	return nil
}

func filterExtensions(files, exts []string) []string {
	if len(exts) == 0 {
		return files
	}
	var out []string
	for _, f := range files {
		ext := filepath.Ext(f)
		for _, want := range exts {
			if ext == want || "."+ext == want || ext == "."+want {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func init() {
	reviewCmd.AddCommand(reviewFileCmd)
	reviewCmd.AddCommand(reviewDirCmd)
	reviewCmd.AddCommand(reviewStdinCmd)
	reviewCmd.AddCommand(reviewStagedCmd)
	reviewCmd.AddCommand(reviewUnstagedCmd)

	for _, cmd := range []*cobra.Command{
		reviewFileCmd,
		reviewDirCmd,
		reviewStdinCmd,
		reviewStagedCmd,
		reviewUnstagedCmd,
	} {
		addReviewFlags(cmd)
	}

	reviewDirCmd.Flags().StringVar(&flagExt, "ext", "", "File extensions to review (comma-separated, e.g. .py,.pyi)")
	reviewDirCmd.Flags().BoolVar(&flagNoRecursive, "no-recursive", false, "Do not descend into subdirectories")
	reviewDirCmd.Flags().StringVar(&flagExcludeDirs, "exclude-dir", "", "Directory names to skip (comma-separated)")

	for _, cmd := range []*cobra.Command{reviewStagedCmd, reviewUnstagedCmd} {
		cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
		cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
		cmd.Flags().StringVar(&flagExt, "ext", "", "File extensions to review (comma-separated)")
	}

	reviewStdinCmd.Flags().StringVar(&flagStdinPath, "path", "", "File path to report issues against")
}
