package resource

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Ref resolves to the primary identifier of another resource.
type Ref struct {
	ID string
}

func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Ref": r.ID})
}

func (r Ref) MarshalYAML() (interface{}, error) {
	return map[string]string{"Ref": r.ID}, nil
}

// GetAtt resolves to a named attribute of another resource.
type GetAtt struct {
	ID        string
	Attribute string
}

func (g GetAtt) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{"Fn::GetAtt": {g.ID, g.Attribute}})
}

func (g GetAtt) MarshalYAML() (interface{}, error) {
	return map[string][]string{"Fn::GetAtt": {g.ID, g.Attribute}}, nil
}

// Sub substitutes ${Name} placeholders. Pseudo parameters such as
// ${AWS::Region} are resolved by the apply engine; ${LogicalId} and
// ${LogicalId.Attr} create dependencies.
type Sub struct {
	Template string
}

func (s Sub) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Fn::Sub": s.Template})
}

func (s Sub) MarshalYAML() (interface{}, error) {
	return map[string]string{"Fn::Sub": s.Template}, nil
}

// Join concatenates parts with a separator.
type Join struct {
	Separator string
	Parts     []any
}

func (j Join) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]any{"Fn::Join": {j.Separator, j.Parts}})
}

func (j Join) MarshalYAML() (interface{}, error) {
	return map[string][]any{"Fn::Join": {j.Separator, j.Parts}}, nil
}

var subPlaceholder = regexp.MustCompile(`\$\{([^}!][^}]*)\}`)

// references returns the logical ids a Sub template points at.
func (s Sub) references() []string {
	var ids []string
	for _, m := range subPlaceholder.FindAllStringSubmatch(s.Template, -1) {
		name := m[1]
		if strings.HasPrefix(name, "AWS::") {
			continue
		}
		if i := strings.Index(name, "."); i >= 0 {
			name = name[:i]
		}
		ids = append(ids, name)
	}
	return ids
}

// collectRefs walks a property value and records every referenced logical id.
func collectRefs(v any, out map[string]bool) {
	switch x := v.(type) {
	case Ref:
		out[x.ID] = true
	case GetAtt:
		out[x.ID] = true
	case Sub:
		for _, id := range x.references() {
			out[id] = true
		}
	case Join:
		for _, p := range x.Parts {
			collectRefs(p, out)
		}
	case map[string]any:
		for _, item := range x {
			collectRefs(item, out)
		}
	case []any:
		for _, item := range x {
			collectRefs(item, out)
		}
	}
}
