package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/logger"
	"github.com/davoodharun/apistack/internal/param"
)

func quiet(t *testing.T) {
	logger.SetTestMode(true)
	t.Cleanup(func() { logger.SetTestMode(false) })
}

func TestCreateFileIfNotExistsWithOverwrite(t *testing.T) {
	quiet(t)
	path := filepath.Join(t.TempDir(), "nested", "file.txt")

	require.NoError(t, CreateFileIfNotExists(path, "one"))

	err := CreateFileIfNotExists(path, "two")
	require.ErrorIs(t, err, ErrExists)

	require.NoError(t, CreateFileIfNotExistsWithOverwrite(path, "three", true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "three", string(data))
}

func TestInitProject(t *testing.T) {
	quiet(t)
	dir := t.TempDir()

	require.NoError(t, InitProject(Options{Dir: dir, Service: "go-auth-api", Region: "ap-northeast-1"}))

	for _, name := range []string{config.DefaultPath, ParamsExamplePath, ".gitignore"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	file, err := config.Load(filepath.Join(dir, config.DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, []string{"dev", "stage"}, file.Environments())

	// The minimal stage resolves as written.
	dev, err := config.Resolve("dev", file, nil)
	require.NoError(t, err)
	assert.Equal(t, "go-auth-api-dev", dev.Name)
	assert.Empty(t, dev.Features)

	// The full stage needs the zone id and certificate filled in.
	_, err = config.Resolve("stage", file, nil)
	require.Error(t, err)
	lookup := func(key string) (string, bool) {
		switch key {
		case config.EnvZoneID:
			return "Z123", true
		case config.EnvCertificateRef:
			return "cert-abc", true
		}
		return "", false
	}
	stage, err := config.Resolve("stage", file, lookup)
	require.NoError(t, err)
	assert.Equal(t, "api.example.com", stage.DNS.RecordName())

	params, err := param.LoadFile(filepath.Join(dir, ParamsExamplePath))
	require.NoError(t, err)
	assert.Contains(t, params.Paths(), stage.ParameterPath("db/port"))
}

func TestInitProjectKeepsExistingFiles(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	existing := filepath.Join(dir, config.DefaultPath)
	require.NoError(t, os.WriteFile(existing, []byte("custom"), 0644))

	require.NoError(t, InitProject(Options{Dir: dir, Service: "svc"}))
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(data))

	require.NoError(t, InitProject(Options{Dir: dir, Service: "svc", Force: true}))
	data, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.Contains(t, string(data), "svc-stage")
}

func TestInitProjectRequiresService(t *testing.T) {
	quiet(t)
	require.Error(t, InitProject(Options{Dir: t.TempDir()}))
}

func TestListStages(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	require.NoError(t, InitProject(Options{Dir: dir, Service: "svc"}))
	require.NoError(t, ListStages(filepath.Join(dir, config.DefaultPath)))
	require.Error(t, ListStages(filepath.Join(dir, "missing.yaml")))
}
