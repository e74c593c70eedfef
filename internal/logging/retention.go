package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget specifies a directory and filename pattern to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes files matching the provided targets whose modification
// time is older than retentionDays. A retentionDays value of 0 disables pruning.
// It returns the number of files removed.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, now time.Time, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	exclusions := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if abs, err := filepath.Abs(strings.TrimSpace(path)); err == nil {
				exclusions[abs] = struct{}{}
			}
		}
	}

	removed := 0
	for _, target := range targets {
		dir := strings.TrimSpace(target.Dir)
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if pat := strings.TrimSpace(target.Pattern); pat != "" {
				if matched, err := filepath.Match(pat, entry.Name()); err != nil || !matched {
					continue
				}
			}
			fullPath, err := filepath.Abs(filepath.Join(dir, entry.Name()))
			if err != nil {
				continue
			}
			if _, skip := exclusions[fullPath]; skip {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(fullPath); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("log_path", fullPath),
					Error(err),
					String(FieldErrorHint, "check file permissions and log_dir ownership"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
			if logger != nil {
				logger.Debug("log pruned", String("log_path", fullPath), String(FieldEventType, "log_pruned"))
			}
		}
	}
	return removed
}
