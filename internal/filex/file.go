// Package filex contains filesystem helpers for locating and preparing the
// application-private data directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureAppDir resolves the platform user-config directory, appends appName,
// creates the directory (and parents) if missing and returns the path.
func EnsureAppDir(appName string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}

	dir := filepath.Join(base, appName)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// EnsureDir creates dir (and parents) if missing and returns it.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
