package changes

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// HistoryFile is the backup index kept in the backup directory.
const HistoryFile = "backup_history.json"

// TimestampLayout formats backup timestamps (YYYYMMDD_HHMMSS).
const TimestampLayout = "20060102_150405"

// BackupEntry is one backup of a file.
type BackupEntry struct {
	BackupPath string `json:"backup_path"`
	Timestamp  string `json:"timestamp"`
}

// BackupHistory maps an absolute file path to its backups, oldest first.
type BackupHistory map[string][]BackupEntry

func (m *Manager) historyPath() string {
	return filepath.Join(m.cfg.BackupDir, HistoryFile)
}

func (m *Manager) loadHistory() error {
	data, err := os.ReadFile(m.historyPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading backup history: %w", err)
	}
	var h BackupHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("parsing backup history: %w", err)
	}
	if h != nil {
		m.history = h
	}
	return nil
}

// saveHistory rewrites the whole index in place. The write is not atomic
// and is not locked against other processes.
func (m *Manager) saveHistory() error {
	data, err := json.MarshalIndent(m.history, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding backup history: %w", err)
	}
	if err := os.WriteFile(m.historyPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing backup history: %w", err)
	}
	return nil
}

// BackupFile copies path into the backup directory as
// <name>.<YYYYMMDD_HHMMSS>.bak and records it in the history. A second
// backup within the same second gets a _<n> suffix on the timestamp.
// It returns an error wrapping ErrNotFound when path does not exist.
func (m *Manager) BackupFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("backup %s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("backup %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("backup %s: %w", path, err)
	}

	ts := m.now().Format(TimestampLayout)
	base := filepath.Base(abs)
	dest := filepath.Join(m.cfg.BackupDir, base+"."+ts+".bak")
	for n := 1; fileExists(dest); n++ {
		dest = filepath.Join(m.cfg.BackupDir, base+"."+ts+"_"+strconv.Itoa(n)+".bak")
	}
	if err := os.WriteFile(dest, data, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}

	m.history[abs] = append(m.history[abs], BackupEntry{BackupPath: dest, Timestamp: ts})
	if err := m.saveHistory(); err != nil {
		m.log.Warn("backup created but history not saved", "backup", dest, "err", err)
	}
	m.log.Debug("backup created", "file", abs, "backup", dest)
	return dest, nil
}

// LatestBackup returns the most recent backup recorded for path.
func (m *Manager) LatestBackup(path string) (BackupEntry, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return BackupEntry{}, false
	}
	entries := m.history[abs]
	if len(entries) == 0 {
		return BackupEntry{}, false
	}
	return entries[len(entries)-1], true
}

// Backups returns the recorded backups for path, oldest first.
func (m *Manager) Backups(path string) []BackupEntry {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	return append([]BackupEntry(nil), m.history[abs]...)
}

// History returns a copy of the full backup index.
func (m *Manager) History() BackupHistory {
	out := make(BackupHistory, len(m.history))
	for k, v := range m.history {
		out[k] = append([]BackupEntry(nil), v...)
	}
	return out
}

// RestoreFromBackup copies backupPath over path. An empty backupPath means
// the latest recorded backup. It reports whether the restore happened.
func (m *Manager) RestoreFromBackup(path, backupPath string) bool {
	if backupPath == "" {
		latest, ok := m.LatestBackup(path)
		if !ok {
			m.log.Error("no backup recorded", "file", path)
			return false
		}
		backupPath = latest.BackupPath
	}
	if err := restore(path, backupPath); err != nil {
		m.log.Error("restore failed", "file", path, "backup", backupPath, "err", err)
		return false
	}
	m.log.Info("restored from backup", "file", path, "backup", backupPath)
	return true
}

// CleanupOldBackups deletes backup files whose modification time is older
// than maxAgeDays and drops history entries whose files are gone. Zero
// removes every backup older than now; a negative maxAgeDays uses the
// configured default. It returns the number of files removed.
func (m *Manager) CleanupOldBackups(maxAgeDays int) (int, error) {
	if maxAgeDays < 0 {
		maxAgeDays = m.cfg.MaxBackupAgeDays
	}
	cutoff := m.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	entries, err := os.ReadDir(m.cfg.BackupDir)
	if err != nil {
		return 0, fmt.Errorf("reading backup directory: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || e.Name() == HistoryFile {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			p := filepath.Join(m.cfg.BackupDir, e.Name())
			if err := os.Remove(p); err != nil {
				m.log.Warn("cannot remove backup", "path", p, "err", err)
				continue
			}
			removed++
		}
	}

	for file, list := range m.history {
		kept := list[:0]
		for _, be := range list {
			if fileExists(be.BackupPath) {
				kept = append(kept, be)
			}
		}
		if len(kept) == 0 {
			delete(m.history, file)
		} else {
			m.history[file] = kept
		}
	}
	if err := m.saveHistory(); err != nil {
		return removed, err
	}
	m.log.Info("cleaned up backups", "removed", removed, "max_age_days", maxAgeDays)
	return removed, nil
}

func restore(path, backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backup %s: %w", backupPath, ErrNotFound)
		}
		return err
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, data, mode)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
