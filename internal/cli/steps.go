package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dshills/vaahai/internal/steps"
)

var flagStepsJSON bool

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Inspect registered review steps",
}

var stepsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review steps matching the selection flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(buildOverrides())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}
		crits, err := stepCriteria(e.cfg.Steps)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}
		defs := selectDefinitions(e.registry, crits)

		if flagStepsJSON {
			infos := make([]steps.Info, 0, len(defs))
			for _, d := range defs {
				infos = append(infos, d.Info)
			}
			data, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		if len(defs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No steps match.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), stepsTable(defs))
		return nil
	},
}

// selectDefinitions unions the definitions matching any criterion, sorted
// by id. Disabled steps are listed too.
func selectDefinitions(reg *steps.Registry, crits []steps.Criteria) []steps.Definition {
	seen := make(map[string]bool)
	for _, c := range crits {
		c.IncludeDisabled = true
		for _, d := range reg.Filter(c) {
			seen[d.Info.ID] = true
		}
	}
	var out []steps.Definition
	for _, d := range reg.Definitions() {
		if seen[d.Info.ID] {
			out = append(out, d)
		}
	}
	return out
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func stepsTable(defs []steps.Definition) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "CATEGORY", "SEVERITY", "TAGS", "ENABLED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, d := range defs {
		enabled := "yes"
		if !d.Info.Enabled {
			enabled = "no"
		}
		t.Row(d.Info.ID, string(d.Info.Category), string(d.Info.Severity), strings.Join(d.Info.Tags, ","), enabled)
	}
	return t.String()
}

func init() {
	stepsCmd.AddCommand(stepsListCmd)
	stepsListCmd.Flags().StringVar(&flagCategories, "category", "", "Only list steps in these categories (comma-separated)")
	stepsListCmd.Flags().StringVar(&flagSeverities, "severity", "", "Only list steps with these severities (comma-separated)")
	stepsListCmd.Flags().StringVar(&flagTags, "tags", "", "Only list steps carrying any of these tags (comma-separated)")
	stepsListCmd.Flags().BoolVar(&flagStepsJSON, "json", false, "Print step metadata as JSON")
}
