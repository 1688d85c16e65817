package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davoodharun/apistack/internal/resource"
)

// Component is one resource scheduled in a stage.
type Component struct {
	LogicalID string   `yaml:"logicalId"`
	Type      string   `yaml:"type"`
	Path      string   `yaml:"path"`
	Deps      []string `yaml:"dependsOn,omitempty"`
}

// Stage is one dependency level: every component in it only depends on
// components of earlier stages, so an apply engine may create them together.
type Stage struct {
	Name       string      `yaml:"name"`
	DependsOn  []string    `yaml:"dependsOn,omitempty"`
	Components []Component `yaml:"components"`
}

// Pipeline is the ordered apply plan of one environment.
type Pipeline struct {
	Name      string  `yaml:"name"`
	Env       string  `yaml:"env"`
	Revision  string  `yaml:"revision,omitempty"`
	Resources int     `yaml:"resources"`
	Stages    []Stage `yaml:"stages"`
}

// BuildDependencyChain turns the waves of g into pipeline stages.
func BuildDependencyChain(g *resource.Graph) ([]Stage, error) {
	waves, err := g.Waves()
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency chain: %w", err)
	}

	stages := make([]Stage, 0, len(waves))
	for i, wave := range waves {
		stage := Stage{Name: fmt.Sprintf("wave-%d", i+1)}
		if i > 0 {
			stage.DependsOn = []string{stages[i-1].Name}
		}
		for _, r := range wave {
			deps, err := g.Dependencies(r.LogicalID)
			if err != nil {
				return nil, err
			}
			if len(deps) == 0 {
				deps = nil
			}
			stage.Components = append(stage.Components, Component{
				LogicalID: r.LogicalID,
				Type:      r.Type,
				Path:      r.Path,
				Deps:      deps,
			})
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// New builds the pipeline of one environment.
func New(name, env, revision string, g *resource.Graph) (*Pipeline, error) {
	stages, err := BuildDependencyChain(g)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Name: name, Env: env, Revision: revision, Resources: g.Len(), Stages: stages}, nil
}

// YAML renders the pipeline.
func (p *Pipeline) YAML() ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to render plan: %w", err)
	}
	return data, nil
}

// Summary is a compact human-readable listing of the stages.
func (p *Pipeline) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %d resources in %d stages\n", p.Name, p.Env, p.Resources, len(p.Stages))
	for _, stage := range p.Stages {
		fmt.Fprintf(&b, "  %s\n", stage.Name)
		for _, c := range stage.Components {
			fmt.Fprintf(&b, "    - %-48s %s\n", c.Path, c.Type)
		}
	}
	return b.String()
}

// WritePlan writes the pipeline as YAML to path.
func (p *Pipeline) WritePlan(path string) error {
	data, err := p.YAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plan directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
