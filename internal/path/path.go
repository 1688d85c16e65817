package path

import (
	"os"
	"path/filepath"

	"github.com/davoodharun/apistack/internal/logger"
)

// OutputRoot is the directory synthesized artifacts are written under.
const OutputRoot = ".apistack"

// GetOutputPath returns the artifact directory for env, .apistack/out/{env}
// relative to base. The directory is created if it doesn't exist.
func GetOutputPath(base, env string) string {
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			logger.Warning("Failed to get current working directory: %v", err)
			cwd = "."
		}
		base = cwd
	}

	outPath := filepath.Join(base, OutputRoot, "out", env)
	if _, err := os.Stat(outPath); os.IsNotExist(err) {
		if err := os.MkdirAll(outPath, 0755); err != nil {
			logger.Warning("Failed to create %s: %v", outPath, err)
		}
	}

	return outPath
}

// JoinOutputPath joins the artifact directory of env with the given elements.
func JoinOutputPath(base, env string, elem ...string) string {
	return filepath.Join(append([]string{GetOutputPath(base, env)}, elem...)...)
}

// SnapshotPath is the default location of the stored snapshot for env.
func SnapshotPath(base, env string) string {
	if base == "" {
		base = "."
	}
	return filepath.Join(base, OutputRoot, "snapshots", env+".json")
}
