// Package synth writes the artifacts of a built stack to disk.
package synth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/davoodharun/apistack/internal/diagram"
	"github.com/davoodharun/apistack/internal/logger"
	"github.com/davoodharun/apistack/internal/pipeline"
	"github.com/davoodharun/apistack/internal/stack"
)

// Artifact file names.
const (
	TemplateJSON = "template.json"
	TemplateYAML = "template.yaml"
	TemplateHCL  = "template.hcl"
	PlanFile     = "plan.yaml"
	DiagramFile  = "diagram.md"
)

// Result lists what Generate wrote.
type Result struct {
	Dir      string
	Files    []string
	Pipeline *pipeline.Pipeline
}

type artifact struct {
	name   string
	render func() ([]byte, error)
}

// Generate renders s into dir: the template in JSON, YAML and HCL, the
// dependency plan and a mermaid diagram. The written files are validated
// before returning.
func Generate(s *stack.Stack, dir string) (*Result, error) {
	sc := s.Context
	plan, err := pipeline.New(sc.Name, sc.Env, s.Revision, s.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to build plan: %w", err)
	}

	artifacts := []artifact{
		{TemplateJSON, s.Graph.JSON},
		{TemplateYAML, s.Graph.YAML},
		{TemplateHCL, s.Graph.HCL},
		{PlanFile, plan.YAML},
		{DiagramFile, func() ([]byte, error) {
			content, err := diagram.Render(s.Graph, diagram.FormatMermaid)
			return []byte(content), err
		}},
	}

	logger.StartProgress("Writing artifacts", len(artifacts)+1)
	defer logger.FinishProgress()
	logger.Info("Writing %s artifacts to %s", sc.Name, dir)

	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("Failed to create output directory: %v", err)
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &Result{Dir: dir, Pipeline: plan}
	for _, a := range artifacts {
		data, err := a.render()
		if err != nil {
			logger.Error("Failed to render %s: %v", a.name, err)
			return nil, fmt.Errorf("failed to render %s: %w", a.name, err)
		}
		path := filepath.Join(dir, a.name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			logger.Error("Failed to write %s: %v", path, err)
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		result.Files = append(result.Files, path)
		logger.Debug("Wrote %s", path)
		logger.UpdateProgress()
	}

	if err := ValidateGenerated(dir); err != nil {
		return nil, err
	}
	logger.UpdateProgress()

	logger.Success("Synthesized %d resources in %d stages", plan.Resources, len(plan.Stages))
	return result, nil
}
