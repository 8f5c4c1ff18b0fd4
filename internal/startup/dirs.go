package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"movie-indexer/internal/logging"
)

// absPaths makes every entry of every list absolute and clean, in place.
func absPaths(lists ...[]string) error {
	for _, list := range lists {
		for i, p := range list {
			abs, err := filepath.Abs(p)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			list[i] = filepath.Clean(abs)
		}
	}
	return nil
}

// checkDatasource reports why path cannot be scanned. Datasources are
// never created.
func checkDatasource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			dirs := 0
			for _, e := range entries {
				if e.IsDir() {
					dirs++
				}
			}
			logging.Debug("    %s: %d folders, %d files at top level", path, dirs, len(entries)-dirs)
		}
	}
	return nil
}

// ensureDirectory creates path if needed and fails if it is not a
// directory.
func ensureDirectory(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	logging.Debug("    [OK] Directory ready: %s", path)
	return nil
}

// checkWritable creates and removes a temporary file in dir.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	if err := os.Remove(name); err != nil {
		logging.Warn("Failed to remove write test file %s: %v", name, err)
	}
	return nil
}

// setupOptionalDir prepares a directory for a feature that is disabled,
// not fatal, when the directory is unusable.
func setupOptionalDir(path, feature string) bool {
	err := ensureDirectory(path)
	if err == nil {
		err = checkWritable(path)
	}
	if err != nil {
		logging.Warn("  %s directory %s unusable, %s disabled: %v", feature, path, feature, err)
		return false
	}
	return true
}

// checkFFprobe resolves name on PATH and runs it once.
func checkFFprobe(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  ffprobe path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("running %s -version: %w", path, err)
	}
	if line, _, _ := strings.Cut(string(output), "\n"); line != "" {
		logging.Debug("  ffprobe version: %s", strings.TrimSpace(line))
	}
	return nil
}
