// Package template writes the starter files of a new project.
package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/logger"
	"github.com/davoodharun/apistack/internal/templates"
)

// ParamsExamplePath is the sample parameter file written next to the config.
const ParamsExamplePath = "params.example.yaml"

// GitignoreTemplate is the default template for .gitignore
const GitignoreTemplate = `# Code Editor settings
.vscode/
.idea/

# Synthesized templates, plans and diagrams
.apistack/

# Local parameter values
params.yaml

# Ignore temporary files
*.tmp
*.bak
*.swp
*~

# Ignore OS specific files
.DS_Store
Thumbs.db

# Ignore log files
*.log
`

// ErrExists is returned when a file is already present and overwriting was
// not requested.
var ErrExists = errors.New("file already exists")

// Options controls InitProject.
type Options struct {
	Dir     string
	Service string
	Region  string
	Force   bool
}

// CreateFileIfNotExists creates a file with the given content if it doesn't exist
func CreateFileIfNotExists(path string, content string) error {
	return CreateFileIfNotExistsWithOverwrite(path, content, false)
}

// CreateFileIfNotExistsWithOverwrite creates a file with the given content if it doesn't exist
// If overwriteIfExists is true, it will overwrite the file if it already exists
func CreateFileIfNotExistsWithOverwrite(path string, content string, overwriteIfExists bool) error {
	if _, err := os.Stat(path); err == nil && !overwriteIfExists {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return os.WriteFile(path, []byte(content), 0644)
}

// InitProject writes apistack.yaml, a sample parameter file and .gitignore
// into opts.Dir. Existing files are skipped unless opts.Force is set.
func InitProject(opts Options) error {
	if opts.Service == "" {
		return fmt.Errorf("service name is required")
	}
	if opts.Region == "" {
		opts.Region = config.DefaultRegion
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}

	logger.Info("Initializing new project for %s in %s", opts.Service, opts.Region)

	renderer, err := templates.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create template renderer: %w", err)
	}
	data := templates.DefaultProject(opts.Service, opts.Region)

	stageConfig, err := renderer.RenderTemplate(templates.StageConfig, data)
	if err != nil {
		return err
	}
	params, err := renderer.RenderTemplate(templates.Params, data)
	if err != nil {
		return err
	}

	files := []struct {
		name    string
		content string
	}{
		{config.DefaultPath, stageConfig},
		{ParamsExamplePath, params},
		{".gitignore", GitignoreTemplate},
	}
	for _, f := range files {
		path := filepath.Join(opts.Dir, f.name)
		err := CreateFileIfNotExistsWithOverwrite(path, f.content, opts.Force)
		switch {
		case errors.Is(err, ErrExists):
			logger.Warning("File %s already exists, skipping...", path)
		case err != nil:
			return fmt.Errorf("failed to create %s: %w", f.name, err)
		default:
			logger.Success("Created %s", path)
		}
	}

	logger.Success("Project initialization complete")
	return nil
}

// ListStages logs every environment defined in the config file along with its
// resolved feature set.
func ListStages(path string) error {
	file, err := config.Load(path)
	if err != nil {
		return err
	}

	logger.Section("Available stages")
	for _, env := range file.Environments() {
		sc, err := config.Resolve(env, file, config.EnvLookup)
		if err != nil {
			logger.Warning("  - %s (invalid: %v)", env, err)
			continue
		}
		logger.Log("  - %s: %s [%s] zones=%d", env, sc.Name, sc.Features, len(sc.AvailabilityZones))
	}
	return nil
}
