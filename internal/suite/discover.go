package suite

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/labrunner/internal/config"
)

// Dir returns the fixture directory of s under suitesDir.
func Dir(suitesDir string, s Suite) string {
	return filepath.Join(suitesDir, string(s.ID))
}

// Discover lists the files in dir whose names end with ext, in directory
// order. Other files are skipped silently. A non-empty filter is a
// doublestar pattern matched against the file name.
func Discover(dir, ext, filter string) ([]string, error) {
	if filter != "" && !doublestar.ValidatePattern(filter) {
		return nil, &ConfigError{Message: fmt.Sprintf("invalid filter pattern %q", filter)}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		if filter != "" {
			matched, err := doublestar.Match(filter, name)
			if err != nil {
				return nil, fmt.Errorf("match filter: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, name))
	}

	return files, nil
}

// Preflight checks everything a run of s needs before any test starts:
// the compiler, the executor for two-stage suites, the suite directory and,
// in persistent mode, the IR directory (created here, once).
func Preflight(cfg config.Config, s Suite) error {
	if err := requireExecutable("compiler", cfg.Compiler); err != nil {
		return err
	}

	if s.NeedsExecutor {
		if err := requireExecutable("executor", cfg.Executor); err != nil {
			return err
		}
	}

	dir := Dir(cfg.SuitesDir, s)
	info, err := os.Stat(dir)
	if err != nil {
		return &ConfigError{Message: fmt.Sprintf("suite directory not found: %s", dir), Err: err}
	}
	if !info.IsDir() {
		return &ConfigError{Message: fmt.Sprintf("suite path is not a directory: %s", dir)}
	}

	if s.NeedsExecutor && cfg.Persistent() {
		if err := os.MkdirAll(cfg.IRDir, 0755); err != nil {
			return &ConfigError{Message: fmt.Sprintf("cannot create IR directory %s", cfg.IRDir), Err: err}
		}
	}

	return nil
}

// requireExecutable resolves path the way exec.Command will.
func requireExecutable(role, path string) error {
	if path == "" {
		return &ConfigError{Message: fmt.Sprintf("%s path is empty", role)}
	}
	if _, err := exec.LookPath(path); err != nil {
		msg := fmt.Sprintf("%s not found: %s", role, path)
		if errors.Is(err, os.ErrPermission) {
			msg = fmt.Sprintf("%s is not executable: %s", role, path)
		}
		return &ConfigError{Message: msg, Err: err}
	}
	return nil
}
