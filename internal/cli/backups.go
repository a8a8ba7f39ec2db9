package cli

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/vaahai/internal/changes"
)

var (
	flagBackupFrom    string
	flagBackupYes     bool
	flagBackupMaxDays int
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List, restore and clean up file backups",
}

func openManager(cmd *cobra.Command) (*changes.Manager, bool) {
	e, err := loadEnv(nil)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		exitCode = ExitUsageError
		return nil, false
	}
	mgr, err := changes.New(changeConfig(e), changes.WithLogger(e.logger))
	if err != nil {
		fail(cmd, "%v", err)
		return nil, false
	}
	return mgr, true
}

var backupsListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "List recorded backups, optionally for one file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, ok := openManager(cmd)
		if !ok {
			return nil
		}
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			list := mgr.Backups(args[0])
			if len(list) == 0 {
				fmt.Fprintf(out, "No backups for %s.\n", args[0])
				return nil
			}
			for _, b := range list {
				fmt.Fprintf(out, "%s  %s\n", b.Timestamp, b.BackupPath)
			}
			return nil
		}

		hist := mgr.History()
		if len(hist) == 0 {
			fmt.Fprintln(out, "No backups recorded.")
			return nil
		}
		files := make([]string, 0, len(hist))
		for f := range hist {
			files = append(files, f)
		}
		sort.Strings(files)
		for _, f := range files {
			fmt.Fprintf(out, "%s (%d)\n", f, len(hist[f]))
			for _, b := range hist[f] {
				fmt.Fprintf(out, "  %s  %s\n", b.Timestamp, b.BackupPath)
			}
		}
		return nil
	},
}

var backupsRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore a file from its latest (or a chosen) backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, ok := openManager(cmd)
		if !ok {
			return nil
		}
		if !flagBackupYes {
			ok, err := confirm(cmd, fmt.Sprintf("Overwrite %s from backup? [y/N]: ", args[0]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}
		if !mgr.RestoreFromBackup(args[0], flagBackupFrom) {
			fail(cmd, "cannot restore %s", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
		return nil
	},
}

var backupsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete backups older than the configured age",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, ok := openManager(cmd)
		if !ok {
			return nil
		}
		n, err := mgr.CleanupOldBackups(flagBackupMaxDays)
		if err != nil {
			fail(cmd, "%v", err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backup(s).\n", n)
		return nil
	},
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if _, err := fmt.Fprint(cmd.OutOrStdout(), prompt); err != nil {
		return false, err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	resp := strings.ToLower(strings.TrimSpace(line))
	return resp == "y" || resp == "yes", nil
}

func init() {
	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsRestoreCmd)
	backupsCmd.AddCommand(backupsCleanupCmd)

	backupsRestoreCmd.Flags().StringVar(&flagBackupFrom, "from", "", "Backup file to restore (default: latest)")
	backupsRestoreCmd.Flags().BoolVarP(&flagBackupYes, "yes", "y", false, "Do not ask for confirmation")
	backupsCleanupCmd.Flags().IntVar(&flagBackupMaxDays, "max-age-days", -1, "Delete backups older than this many days; 0 removes all (default: config)")
}
