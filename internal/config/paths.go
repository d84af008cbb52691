package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolve makes every relative path absolute against base.
func (p PathsConfig) Resolve(base string) PathsConfig {
	abs := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(base, path)
	}
	return PathsConfig{
		InboxDir:    abs(p.InboxDir),
		OutboxDir:   abs(p.OutboxDir),
		SummaryFile: abs(p.SummaryFile),
		ReportDir:   abs(p.ReportDir),
	}
}

// EnsureDirectories creates the inbox, outbox and report directories and the
// directory holding the summary workbook.
func (p PathsConfig) EnsureDirectories() error {
	dirs := []string{p.InboxDir, p.OutboxDir, filepath.Dir(p.SummaryFile)}
	if p.ReportDir != "" {
		dirs = append(dirs, p.ReportDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
