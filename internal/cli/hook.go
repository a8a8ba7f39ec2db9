package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/vaahai/internal/gitctx"
)

const (
	hookMarkerStart = "# >>> vaahai pre-commit hook >>>"
	hookMarkerEnd   = "# <<< vaahai pre-commit hook <<<"
	hookShebang     = "#!/bin/sh\n"
)

// hookSpec is the review the pre-commit hook runs.
type hookSpec struct {
	FailOn     string
	Format     string
	Categories []string
	Severities []string
	Tags       []string
	Steps      []string
}

// args renders the spec as review staged flags.
func (h hookSpec) args() []string {
	args := []string{"--fail-on", h.FailOn, "--format", h.Format, "--no-history"}
	for _, f := range []struct {
		name string
		vals []string
	}{
		{"--category", h.Categories},
		{"--severity", h.Severities},
		{"--tags", h.Tags},
		{"--steps", h.Steps},
	} {
		if len(f.vals) > 0 {
			args = append(args, f.name, strings.Join(f.vals, ","))
		}
	}
	return args
}

var (
	hookFailOn     string
	hookFormat     string
	hookFromConfig bool
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit hook",
}

// hookSpecFromFlags builds the spec from the shared selection flags. With
// --from-config and no explicit selection, the configured step selection is
// baked into the hook.
func hookSpecFromFlags() (hookSpec, error) {
	spec := hookSpec{
		FailOn:     hookFailOn,
		Format:     hookFormat,
		Categories: splitComma(flagCategories),
		Severities: splitComma(flagSeverities),
		Tags:       splitComma(flagTags),
		Steps:      splitComma(flagSteps),
	}
	explicit := len(spec.Categories)+len(spec.Severities)+len(spec.Tags)+len(spec.Steps) > 0
	if !hookFromConfig || explicit {
		return spec, nil
	}
	e, err := loadEnv(nil)
	if err != nil {
		return hookSpec{}, err
	}
	spec.Categories = e.cfg.Steps.Categories
	spec.Severities = e.cfg.Steps.Severities
	spec.Tags = e.cfg.Steps.Tags
	return spec, nil
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install vaahai as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := hookSpecFromFlags()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}
		path, err := gitctx.HookPath("pre-commit")
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		if err := installHook(path, spec); err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed vaahai pre-commit hook at %s\n", path)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove vaahai pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := gitctx.HookPath("pre-commit")
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		removed, err := uninstallHook(path)
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		if !removed {
			fmt.Fprintln(cmd.OutOrStdout(), "No vaahai pre-commit hook found.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed vaahai pre-commit hook from %s\n", path)
		return nil
	},
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the review command the installed hook runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := gitctx.HookPath("pre-commit")
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			fail(cmd, "%v", err)
			return nil
		}
		if line, ok := hookCommand(string(data)); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Installed at %s\n  %s\n", path, line)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Not installed.")
		return nil
	},
}

// installHook writes or replaces the vaahai section of the hook at path,
// keeping any other hook content.
func installHook(path string, spec hookSpec) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading hook file: %w", err)
	}
	content := hookShebang + generateHookScript(spec)
	if len(existing) > 0 {
		content = replaceHookSection(string(existing), generateHookScript(spec))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing hook file: %w", err)
	}
	return nil
}

// uninstallHook strips the vaahai section and deletes the file when nothing
// but a shebang is left. It reports whether a section was found.
func uninstallHook(path string) (bool, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading hook file: %w", err)
	}
	content := removeHookSection(string(existing))
	if content == string(existing) {
		return false, nil
	}
	switch strings.TrimSpace(content) {
	case "", "#!/bin/sh", "#!/bin/bash":
		if err := os.Remove(path); err != nil {
			return false, fmt.Errorf("removing hook file: %w", err)
		}
		return true, nil
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return false, fmt.Errorf("writing hook file: %w", err)
	}
	return true, nil
}

func generateHookScript(spec hookSpec) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("vaahai review staged " + strings.Join(spec.args(), " ") + "\n")
	b.WriteString("VAAHAI_EXIT=$?\n")
	b.WriteString("if [ $VAAHAI_EXIT -eq 1 ]; then\n")
	fmt.Fprintf(&b, "  echo \"vaahai: findings at or above %s severity, commit blocked\"\n", spec.FailOn)
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $VAAHAI_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"vaahai: review failed (exit $VAAHAI_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

// hookSection splits existing around the vaahai section.
func hookSection(existing string) (before, section, after string, ok bool) {
	before, rest, found := strings.Cut(existing, hookMarkerStart)
	if !found {
		return existing, "", "", false
	}
	section, after, found = strings.Cut(rest, hookMarkerEnd)
	if !found {
		return existing, "", "", false
	}
	return before, section, strings.TrimPrefix(after, "\n"), true
}

// hookCommand returns the vaahai command line inside the section.
func hookCommand(existing string) (string, bool) {
	_, section, _, ok := hookSection(existing)
	if !ok {
		return "", false
	}
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "vaahai ") {
			return line, true
		}
	}
	return "", false
}

func replaceHookSection(existing, section string) string {
	before, _, after, ok := hookSection(existing)
	if !ok {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}
	return before + section + after
}

func removeHookSection(existing string) string {
	before, _, after, ok := hookSection(existing)
	if !ok {
		return existing
	}
	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "high", "Fail on severity threshold (none, info, low, medium, high, critical)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json, markdown, sarif)")
	hookInstallCmd.Flags().StringVar(&flagCategories, "category", "", "Only run steps in these categories (comma-separated)")
	hookInstallCmd.Flags().StringVar(&flagSeverities, "severity", "", "Only run steps with these severities (comma-separated)")
	hookInstallCmd.Flags().StringVar(&flagTags, "tags", "", "Only run steps carrying any of these tags (comma-separated)")
	hookInstallCmd.Flags().StringVar(&flagSteps, "steps", "", "Run exactly these step ids (comma-separated)")
	hookInstallCmd.Flags().BoolVar(&hookFromConfig, "from-config", false, "Bake the configured step selection into the hook")
}
