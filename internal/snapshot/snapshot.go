// Package snapshot stores normalized templates and reports drift between a
// fresh synthesis and the stored copy.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/go-cmp/cmp"

	"github.com/davoodharun/apistack/internal/resource"
)

// ErrNoSnapshot is returned by Read when the snapshot file does not exist.
var ErrNoSnapshot = errors.New("snapshot not found")

// ElidedName replaces environment specific record names.
const ElidedName = "<elided>"

// Normalize renders g and elides the fields that legitimately differ between
// environments: the Name of every A record.
func Normalize(g *resource.Graph) (map[string]any, error) {
	doc, err := g.Generic()
	if err != nil {
		return nil, err
	}

	resources, _ := doc["Resources"].(map[string]any)
	for _, raw := range resources {
		entry, ok := raw.(map[string]any)
		if !ok || entry["Type"] != "AWS::Route53::RecordSet" {
			continue
		}
		props, ok := entry["Properties"].(map[string]any)
		if !ok || props["Type"] != "A" {
			continue
		}
		if _, ok := props["Name"]; ok {
			props["Name"] = ElidedName
		}
	}
	return doc, nil
}

// Marshal encodes a normalized document.
func Marshal(doc map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Read loads a stored snapshot.
func Read(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return doc, nil
}

// Write stores a normalized document, creating parent directories.
func Write(path string, doc map[string]any) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Diff returns a human readable difference, empty when want and got match.
func Diff(want, got map[string]any) string {
	return cmp.Diff(want, got)
}

// Compare normalizes g and diffs it against the snapshot at path.
func Compare(path string, g *resource.Graph) (string, error) {
	want, err := Read(path)
	if err != nil {
		return "", err
	}
	got, err := Normalize(g)
	if err != nil {
		return "", err
	}
	return Diff(want, got), nil
}
