// Package store is the file-based persistence boundary: pretty-printed JSON
// blobs keyed by path. Every pipeline stage saves through it immediately
// after completing, which is what makes crashed runs resumable.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Load reads the JSON file at path into v. A missing file leaves v at its
// default and returns false; a malformed file is an error.
func Load(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("store: parse %s: %w", path, err)
	}
	return true, nil
}

// Save writes v to path as indented JSON, creating parent directories.
func Save(path string, v any) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	return nil
}

// EnsureDir creates the directory (and parents) if absent.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", path, err)
	}
	return nil
}

var slashes = regexp.MustCompile(`\s*/\s*`)

// SanitizeOccupation turns an occupation title into a filename fragment.
func SanitizeOccupation(occupation string) string {
	s := slashes.ReplaceAllString(occupation, " and ")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	return strings.ToLower(s)
}

// Layout of the synthesis output directory.

func PersonasPath(outputDir string) string {
	return filepath.Join(outputDir, "personas.json")
}

func PersonaDataPath(outputDir string, personaID int, occupation string) string {
	name := fmt.Sprintf("%d+%s.json", personaID, SanitizeOccupation(occupation))
	return filepath.Join(outputDir, "data", name)
}

func InstancePath(outputDir, dataName, instanceType string) string {
	return filepath.Join(outputDir, "instances", fmt.Sprintf("%s+%s.json", dataName, instanceType))
}

// Layout of the evaluation results directory.

func ResultPath(resultsDir, model, instanceName string) string {
	return filepath.Join(resultsDir, model, instanceName+".json")
}

func AggregatePath(resultsDir, model string) string {
	return filepath.Join(resultsDir, model, "results.json")
}
