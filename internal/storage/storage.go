// Package storage persists sessions, profiles, and advisory reports as
// JSON files under the tax copilot home directory (~/.tax_copilot by
// default). Writes go through a temp file and rename so a crash never
// leaves a half-written record behind.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrReportNotFound  = errors.New("report not found")
)

// DefaultDir returns ~/.tax_copilot.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".tax_copilot"), nil
}

// Dir resolves the storage base directory: the override when set,
// otherwise DefaultDir.
func Dir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return DefaultDir()
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", path, err)
	}
	return nil
}

// writeJSON writes v to path atomically via a temp file.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
