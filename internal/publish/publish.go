// Package publish uploads synthesized artifacts to object storage together
// with a manifest describing the run.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davoodharun/apistack/internal/logger"
)

// ManifestName is the object written last under every run prefix.
const ManifestName = "manifest.json"

// Target schemes.
const (
	SchemeS3    = "s3"
	SchemeAzure = "azblob"
)

// Publisher stores one object.
type Publisher interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Location() string
}

// Target is a parsed publish destination: s3://bucket/prefix or
// azblob://account/container/prefix.
type Target struct {
	Scheme    string
	Account   string
	Container string
	Prefix    string
}

// ParseTarget parses a publish destination URL.
func ParseTarget(raw string) (Target, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Target{}, fmt.Errorf("invalid publish target %q: missing scheme", raw)
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	t := Target{Scheme: scheme}
	switch scheme {
	case SchemeS3:
		if parts[0] == "" {
			return Target{}, fmt.Errorf("invalid publish target %q: bucket is required", raw)
		}
		t.Container = parts[0]
		t.Prefix = strings.Join(parts[1:], "/")
	case SchemeAzure:
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return Target{}, fmt.Errorf("invalid publish target %q: account and container are required", raw)
		}
		t.Account = parts[0]
		t.Container = parts[1]
		t.Prefix = strings.Join(parts[2:], "/")
	default:
		return Target{}, fmt.Errorf("invalid publish target %q: unsupported scheme %q", raw, scheme)
	}
	return t, nil
}

// Open returns the Publisher for the target, reading credentials from the
// process environment.
func (t Target) Open(ctx context.Context) (Publisher, error) {
	switch t.Scheme {
	case SchemeS3:
		cfg := S3ConfigFromEnv()
		cfg.Bucket = t.Container
		return NewS3(ctx, cfg)
	case SchemeAzure:
		return NewAzure(ctx, t.Account, t.Container)
	}
	return nil, fmt.Errorf("unsupported scheme %q", t.Scheme)
}

// File is one uploaded artifact.
type File struct {
	Name string `json:"name"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Manifest records what a publish run uploaded.
type Manifest struct {
	RunID     string    `json:"runId"`
	Stage     string    `json:"stage"`
	Env       string    `json:"env"`
	Revision  string    `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	Files     []File    `json:"files"`
}

// NewManifest starts a manifest with a fresh run id.
func NewManifest(stage, env, revision string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Stage:     stage,
		Env:       env,
		Revision:  revision,
		CreatedAt: time.Now().UTC(),
	}
}

// Prefix is the key prefix every object of the run is stored under.
func (m *Manifest) Prefix(base string) string {
	return path.Join(base, m.Env, m.Revision, m.RunID)
}

// Dir uploads every regular file in dir, then the manifest. It returns the
// manifest with the uploaded files recorded.
func Dir(ctx context.Context, pub Publisher, dir, prefix string, m *Manifest) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name() != ManifestName {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no artifacts found in %s", dir)
	}
	sort.Strings(names)

	runPrefix := m.Prefix(prefix)
	logger.StartProgress("Publishing artifacts", len(names)+1)
	defer logger.FinishProgress()

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		key := path.Join(runPrefix, name)
		if err := pub.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType(name)); err != nil {
			logger.Error("Failed to upload %s: %v", name, err)
			return nil, fmt.Errorf("failed to upload %s: %w", name, err)
		}
		m.Files = append(m.Files, File{Name: name, Key: key, Size: int64(len(data))})
		logger.UpdateProgress()
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	key := path.Join(runPrefix, ManifestName)
	if err := pub.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return nil, fmt.Errorf("failed to upload manifest: %w", err)
	}
	logger.UpdateProgress()

	logger.Success("Published %d artifacts to %s/%s", len(m.Files), pub.Location(), runPrefix)
	return m, nil
}

func contentType(name string) string {
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return "application/yaml"
	case ".hcl", ".md":
		return "text/plain; charset=utf-8"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
