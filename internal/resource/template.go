package resource

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

const templateFormatVersion = "2010-09-09"

// Template is the CloudFormation document form of a graph.
type Template struct {
	AWSTemplateFormatVersion string                   `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                   `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources                map[string]TemplateEntry `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output        `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// TemplateEntry is one resource inside a Template.
type TemplateEntry struct {
	Type                string     `json:"Type" yaml:"Type"`
	Properties          Properties `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn           []string   `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy      string     `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string     `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
	Metadata            Properties `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
}

// Template converts the graph to its document form. The construct path is
// kept under Metadata so reviewers can map logical ids back to builders.
func (g *Graph) Template() Template {
	t := Template{
		AWSTemplateFormatVersion: templateFormatVersion,
		Description:              g.Description,
		Resources:                make(map[string]TemplateEntry, len(g.resources)),
	}
	for _, r := range g.Resources() {
		t.Resources[r.LogicalID] = TemplateEntry{
			Type:                r.Type,
			Properties:          r.Properties,
			DependsOn:           r.DependsOn,
			DeletionPolicy:      r.DeletionPolicy,
			UpdateReplacePolicy: r.UpdateReplacePolicy,
			Metadata:            Properties{"apistack:path": r.Path},
		}
	}
	if len(g.outputs) > 0 {
		t.Outputs = g.Outputs()
	}
	return t
}

// JSON renders the template as indented JSON. Map keys are emitted in sorted
// order so the output is stable across runs.
func (g *Graph) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(g.Template(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render template JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// YAML renders the template as YAML.
func (g *Graph) YAML() ([]byte, error) {
	data, err := yaml.Marshal(g.Template())
	if err != nil {
		return nil, fmt.Errorf("failed to render template YAML: %w", err)
	}
	return data, nil
}

// Generic converts the template to plain maps and slices with intrinsics in
// their document form. Snapshot comparison works on this representation.
func (g *Graph) Generic() (map[string]any, error) {
	data, err := json.Marshal(g.Template())
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	return out, nil
}
