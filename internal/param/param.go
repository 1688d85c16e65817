// Package param resolves runtime parameters from an external parameter store.
//
// Plain values are read at build time through a Store. Secrets are never read:
// builders only emit references that the platform resolves when a task starts.
package param

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a parameter path has no value.
var ErrNotFound = errors.New("parameter not found")

// Store looks up plain parameter values by path.
type Store interface {
	Value(ctx context.Context, path string) (string, error)
}

// SecretRef points at a secure parameter. It is resolved by the platform at
// task start, so its value never enters the resource graph.
type SecretRef struct {
	Path string
}

// Secret returns a deferred reference to the secure parameter at path.
func Secret(path string) SecretRef {
	return SecretRef{Path: path}
}

// DynamicReference returns the template-time dynamic reference form.
func (s SecretRef) DynamicReference() string {
	return fmt.Sprintf("{{resolve:ssm-secure:%s}}", s.Path)
}

// ParameterName returns the path without its leading slash, as used in ARNs.
func (s SecretRef) ParameterName() string {
	return strings.TrimPrefix(s.Path, "/")
}

// Memory is an in-memory Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates a Memory store seeded with values.
func NewMemory(values map[string]string) *Memory {
	m := &Memory{values: make(map[string]string, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Set stores a value.
func (m *Memory) Set(path, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[path] = value
}

// Value implements Store.
func (m *Memory) Value(_ context.Context, path string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return v, nil
}

// Paths returns the stored paths in sorted order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.values))
	for p := range m.values {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// LoadFile reads a YAML document of path: value pairs into a Memory store.
//
//	/stage/auth/db/port: "3306"
//	/stage/auth/db/user: admin
func LoadFile(filename string) (*Memory, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse parameter file: %w", err)
	}
	for p := range values {
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("parameter path %q must start with /", p)
		}
	}
	return NewMemory(values), nil
}
