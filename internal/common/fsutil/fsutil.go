package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists checks if the given path exists.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// ConfigCandidates lists where the daemon looks for a config file when none
// is given, most specific first.
func ConfigCandidates() []string {
	out := []string{"promptq.yaml", "promptq.yml", "promptq.toml", "promptq.json"}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, name := range []string{"config.yaml", "config.toml", "config.json"} {
			out = append(out, filepath.Join(dir, "promptq", name))
		}
	}
	return out
}

// FirstExisting returns the first of paths (after ~ expansion) that exists,
// or "" when none does.
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		exp, err := ExpandHome(p)
		if err != nil || exp == "" {
			continue
		}
		if PathExists(exp) {
			return exp
		}
	}
	return ""
}
