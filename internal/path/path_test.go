package path

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputPaths(t *testing.T) {
	base := t.TempDir()

	out := GetOutputPath(base, "stage")
	assert.Equal(t, filepath.Join(base, ".apistack", "out", "stage"), out)
	assert.DirExists(t, out)

	assert.Equal(t, filepath.Join(out, "template.json"), JoinOutputPath(base, "stage", "template.json"))
	assert.Equal(t, filepath.Join(base, ".apistack", "snapshots", "dev.json"), SnapshotPath(base, "dev"))
}
