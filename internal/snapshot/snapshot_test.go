package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/resource"
	"github.com/davoodharun/apistack/internal/stack"
	"github.com/davoodharun/apistack/internal/testutil"
)

func build(t *testing.T, lookup config.Lookup) *resource.Graph {
	t.Helper()
	testutil.Quiet(t)
	sc, err := config.Resolve("stage", testutil.StageFile(t), lookup)
	require.NoError(t, err)
	s, err := stack.Build(context.Background(), sc, stack.Inputs{Revision: testutil.Revision, Params: testutil.Params(sc)})
	require.NoError(t, err)
	return s.Graph
}

func recordProperties(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()
	for _, raw := range doc["Resources"].(map[string]any) {
		entry := raw.(map[string]any)
		if entry["Type"] == stack.RecordSetType {
			return entry["Properties"].(map[string]any)
		}
	}
	t.Fatal("no record set in template")
	return nil
}

func TestNormalizeElidesRecordName(t *testing.T) {
	g := build(t, nil)

	doc, err := Normalize(g)
	require.NoError(t, err)
	props := recordProperties(t, doc)
	assert.Equal(t, ElidedName, props["Name"])
	assert.Equal(t, "A", props["Type"])

	// The graph itself is untouched.
	raw, err := g.Generic()
	require.NoError(t, err)
	assert.Equal(t, "auth.example.com", recordProperties(t, raw)["Name"])
}

func TestSnapshotIgnoresDomainOverride(t *testing.T) {
	base, err := Normalize(build(t, nil))
	require.NoError(t, err)

	overridden, err := Normalize(build(t, func(key string) (string, bool) {
		if key == config.EnvDomain {
			return "login", true
		}
		return "", false
	}))
	require.NoError(t, err)

	assert.Empty(t, Diff(base, overridden))
}

func TestWriteCompare(t *testing.T) {
	g := build(t, nil)
	path := filepath.Join(t.TempDir(), "snapshots", "stage.json")

	_, err := Compare(path, g)
	require.ErrorIs(t, err, ErrNoSnapshot)

	doc, err := Normalize(g)
	require.NoError(t, err)
	require.NoError(t, Write(path, doc))

	diff, err := Compare(path, g)
	require.NoError(t, err)
	assert.Empty(t, diff)

	changed := build(t, func(key string) (string, bool) {
		if key == config.EnvCertificateRef {
			return "cert-xyz", true
		}
		return "", false
	})
	diff, err = Compare(path, changed)
	require.NoError(t, err)
	assert.Contains(t, diff, "cert-xyz")
}
