package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Output = &buf
	t.Cleanup(Reset)

	require.NoError(t, SetFormat(FormatJSON))
	Info("Building %s", "network")
	Debug("hidden at info level")
	Error("failed: %d", 3)
	Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "Building network", first["msg"])
	assert.Contains(t, first, "ts")

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", second["level"])
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	Output = &buf
	t.Cleanup(Reset)

	require.NoError(t, SetFormat(FormatJSON))
	require.NoError(t, SetLevel("debug"))
	Debug("visible")
	Sync()
	assert.Contains(t, buf.String(), `"msg":"visible"`)

	require.Error(t, SetLevel("loud"))
	require.Error(t, SetFormat("xml"))
}

func TestTextFormatAndTestMode(t *testing.T) {
	var buf bytes.Buffer
	Output = &buf
	t.Cleanup(Reset)

	Info("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")

	buf.Reset()
	SetTestMode(true)
	Info("quiet")
	Error("quiet")
	assert.Empty(t, buf.String())
}
