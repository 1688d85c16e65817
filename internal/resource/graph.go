package resource

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Properties are the type-specific settings of a resource. Values are
// strings, numbers, bools, []any, map[string]any or intrinsics.
type Properties = map[string]any

// Deletion and replacement policies.
const (
	PolicyDelete   = "Delete"
	PolicySnapshot = "Snapshot"
	PolicyRetain   = "Retain"
)

// Resource is one node of the graph.
type Resource struct {
	LogicalID           string
	Path                string
	Type                string
	Properties          Properties
	DependsOn           []string
	DeletionPolicy      string
	UpdateReplacePolicy string
}

// Ref returns a reference to this resource.
func (r *Resource) Ref() Ref {
	return Ref{ID: r.LogicalID}
}

// GetAtt returns a reference to one of this resource's attributes.
func (r *Resource) GetAtt(attribute string) GetAtt {
	return GetAtt{ID: r.LogicalID, Attribute: attribute}
}

// DependOn adds an explicit ordering edge: r is created after others.
func (r *Resource) DependOn(others ...*Resource) {
	for _, o := range others {
		if o == nil || o.LogicalID == r.LogicalID {
			continue
		}
		if !containsString(r.DependsOn, o.LogicalID) {
			r.DependsOn = append(r.DependsOn, o.LogicalID)
		}
	}
	sort.Strings(r.DependsOn)
}

// SetRemovalPolicy sets both the deletion and the update-replace policy.
func (r *Resource) SetRemovalPolicy(policy string) {
	r.DeletionPolicy = policy
	r.UpdateReplacePolicy = policy
}

// Output is a named stack output.
type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
}

// Graph is the dependency graph of one stack. It is built by a single
// goroutine and is not safe for concurrent mutation.
type Graph struct {
	Description string
	resources   map[string]*Resource
	paths       map[string]string
	outputs     map[string]Output
}

// New creates an empty graph.
func New(description string) *Graph {
	return &Graph{
		Description: description,
		resources:   make(map[string]*Resource),
		paths:       make(map[string]string),
		outputs:     make(map[string]Output),
	}
}

// LogicalID derives a stable logical id from a construct path: the
// alphanumeric words of the path in PascalCase followed by the first eight
// hex digits of the path's SHA-256.
func LogicalID(path string) string {
	var b strings.Builder
	upper := true
	for _, r := range path {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if r > unicode.MaxASCII {
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	human := b.String()
	if len(human) > 200 {
		human = human[:200]
	}
	sum := sha256.Sum256([]byte(path))
	return human + strings.ToUpper(hex.EncodeToString(sum[:])[:8])
}

// Add inserts a resource under the logical id derived from path. Adding two
// resources with the same path is an error.
func (g *Graph) Add(path, typ string, props Properties) (*Resource, error) {
	if path == "" || typ == "" {
		return nil, fmt.Errorf("resource path and type are required")
	}
	id := LogicalID(path)
	if existing, ok := g.paths[id]; ok {
		return nil, fmt.Errorf("duplicate resource %s (path %q already used by %q)", id, path, existing)
	}
	if props == nil {
		props = Properties{}
	}
	r := &Resource{LogicalID: id, Path: path, Type: typ, Properties: props}
	g.resources[id] = r
	g.paths[id] = path
	return r, nil
}

// Resource returns the resource with the given logical id.
func (g *Graph) Resource(id string) (*Resource, bool) {
	r, ok := g.resources[id]
	return r, ok
}

// Len returns the number of resources.
func (g *Graph) Len() int {
	return len(g.resources)
}

// Resources returns every resource sorted by logical id.
func (g *Graph) Resources() []*Resource {
	out := make([]*Resource, 0, len(g.resources))
	for _, r := range g.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogicalID < out[j].LogicalID })
	return out
}

// ByType returns the resources of one type sorted by logical id.
func (g *Graph) ByType(typ string) []*Resource {
	var out []*Resource
	for _, r := range g.Resources() {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

// AddOutput registers a stack output.
func (g *Graph) AddOutput(name string, value any, description string) {
	g.outputs[name] = Output{Description: description, Value: value}
}

// Outputs returns a copy of the stack outputs.
func (g *Graph) Outputs() map[string]Output {
	out := make(map[string]Output, len(g.outputs))
	for k, v := range g.outputs {
		out[k] = v
	}
	return out
}

// Dependencies returns the sorted logical ids r depends on, implicit and
// explicit.
func (g *Graph) Dependencies(id string) ([]string, error) {
	r, ok := g.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource not found: %s", id)
	}
	refs := make(map[string]bool)
	collectRefs(map[string]any(r.Properties), refs)
	for _, d := range r.DependsOn {
		refs[d] = true
	}
	delete(refs, id)
	deps := make([]string, 0, len(refs))
	for d := range refs {
		deps = append(deps, d)
	}
	sort.Strings(deps)
	return deps, nil
}

// Validate checks that every reference points at a resource in the graph
// and that the graph is acyclic.
func (g *Graph) Validate() error {
	for _, r := range g.Resources() {
		deps, _ := g.Dependencies(r.LogicalID)
		for _, d := range deps {
			if _, ok := g.resources[d]; !ok {
				return fmt.Errorf("resource %s references unknown resource %s", r.LogicalID, d)
			}
		}
	}
	for name, o := range g.outputs {
		refs := make(map[string]bool)
		collectRefs(o.Value, refs)
		for d := range refs {
			if _, ok := g.resources[d]; !ok {
				return fmt.Errorf("output %s references unknown resource %s", name, d)
			}
		}
	}
	_, err := g.Order()
	return err
}

// Order returns the resources in a deterministic topological order, wave by
// wave, each wave sorted by logical id.
func (g *Graph) Order() ([]*Resource, error) {
	waves, err := g.Waves()
	if err != nil {
		return nil, err
	}
	var ordered []*Resource
	for _, wave := range waves {
		ordered = append(ordered, wave...)
	}
	return ordered, nil
}

// Waves groups resources into dependency levels. Every resource of wave n
// depends only on resources of earlier waves, so an apply engine may create
// one wave in parallel.
func (g *Graph) Waves() ([][]*Resource, error) {
	inDegree := make(map[string]int, len(g.resources))
	adj := make(map[string][]string, len(g.resources))
	for id := range g.resources {
		inDegree[id] = 0
	}
	for id := range g.resources {
		deps, _ := g.Dependencies(id)
		for _, d := range deps {
			if _, ok := g.resources[d]; !ok {
				return nil, fmt.Errorf("resource %s references unknown resource %s", id, d)
			}
			adj[d] = append(adj[d], id)
			inDegree[id]++
		}
	}

	var ready []string
	for id, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, id)
		}
	}

	var waves [][]*Resource
	seen := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		wave := make([]*Resource, 0, len(ready))
		var next []string
		for _, id := range ready {
			wave = append(wave, g.resources[id])
			for _, dependent := range adj[id] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		seen += len(wave)
		waves = append(waves, wave)
		ready = next
	}

	if seen != len(g.resources) {
		return nil, fmt.Errorf("dependency graph contains a cycle")
	}
	return waves, nil
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
