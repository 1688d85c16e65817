package diagram

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davoodharun/apistack/internal/logger"
	"github.com/davoodharun/apistack/internal/resource"
)

// Formats supported by Render.
const (
	FormatMermaid  = "mermaid"
	FormatPlantUML = "plantuml"
)

// group is one builder's resources, in graph order.
type group struct {
	name      string
	resources []*resource.Resource
}

// edge is a dependency: from depends on to.
type edge struct {
	from, to string
}

// Render draws the graph in the given format.
func Render(g *resource.Graph, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatMermaid:
		return generateMermaidDiagram(g)
	case FormatPlantUML:
		return generatePlantUMLDiagram(g)
	default:
		return "", fmt.Errorf("unknown diagram format %q (want mermaid or plantuml)", format)
	}
}

// Write renders the graph into path, creating parent directories.
func Write(g *resource.Graph, format, path string) error {
	content, err := Render(g, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create diagrams directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write diagram file: %w", err)
	}
	logger.Success("Wrote %s diagram to %s", format, path)
	return nil
}

// groups splits resources by the first element of their construct path
// (network, security, compute, ...), keeping graph order inside each group.
func groups(g *resource.Graph) ([]group, error) {
	ordered, err := g.Order()
	if err != nil {
		return nil, fmt.Errorf("failed to order resources: %w", err)
	}
	index := make(map[string]int)
	var out []group
	for _, r := range ordered {
		name := r.Path
		if i := strings.Index(name, "/"); i >= 0 {
			name = name[:i]
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, group{name: name})
		}
		out[i].resources = append(out[i].resources, r)
	}
	return out, nil
}

// edges lists every dependency in a stable order.
func edges(g *resource.Graph) []edge {
	var out []edge
	for _, r := range g.Resources() {
		deps, _ := g.Dependencies(r.LogicalID)
		for _, d := range deps {
			out = append(out, edge{from: r.LogicalID, to: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].from != out[j].from {
			return out[i].from < out[j].from
		}
		return out[i].to < out[j].to
	})
	return out
}

// label is the short display name of a resource: its path without the
// group prefix plus the last segment of its type.
func label(r *resource.Resource) string {
	name := r.Path
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	typ := r.Type
	if i := strings.LastIndex(typ, "::"); i >= 0 {
		typ = typ[i+2:]
	}
	return fmt.Sprintf("%s (%s)", name, typ)
}
