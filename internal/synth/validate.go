package synth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"github.com/davoodharun/apistack/internal/logger"
)

// fileExists checks if a file exists and is not a directory
func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// ValidateGenerated checks that every rendered template in dir parses.
func ValidateGenerated(dir string) error {
	logger.Info("Validating generated artifacts")

	checks := []struct {
		name  string
		parse func(path string, content []byte) error
	}{
		{TemplateJSON, validateJSON},
		{TemplateYAML, validateYAML},
		{PlanFile, validateYAML},
		{TemplateHCL, validateHCL},
	}

	for _, c := range checks {
		path := filepath.Join(dir, c.name)
		exists, err := fileExists(path)
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", path, err)
		}
		if !exists {
			return fmt.Errorf("missing artifact %s", path)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if err := c.parse(path, content); err != nil {
			logger.Error("Validation failed: %v", err)
			return err
		}
	}

	logger.Success("All artifacts validated successfully")
	return nil
}

func validateJSON(path string, content []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func validateYAML(path string, content []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func validateHCL(path string, content []byte) error {
	_, diags := hclparse.NewParser().ParseHCL(content, path)
	if diags.HasErrors() {
		var errors []string
		for _, diag := range diags {
			errors = append(errors, fmt.Sprintf("%s: %s", path, diag.Error()))
		}
		return fmt.Errorf("HCL validation errors:\n%s", strings.Join(errors, "\n"))
	}
	return nil
}
