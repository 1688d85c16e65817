package resource

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// HCL renders the graph as HCL: one resource block per node, labelled with
// type and logical id, in dependency order.
func (g *Graph) HCL() ([]byte, error) {
	ordered, err := g.Order()
	if err != nil {
		return nil, err
	}

	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("description", cty.StringVal(g.Description))
	body.SetAttributeValue("format_version", cty.StringVal(templateFormatVersion))

	for _, r := range ordered {
		body.AppendNewline()
		block := body.AppendNewBlock("resource", []string{r.Type, r.LogicalID})
		rb := block.Body()
		rb.SetAttributeValue("path", cty.StringVal(r.Path))
		if len(r.Properties) > 0 {
			props, err := toCty(map[string]any(r.Properties))
			if err != nil {
				return nil, fmt.Errorf("resource %s: %w", r.LogicalID, err)
			}
			rb.SetAttributeValue("properties", props)
		}
		if len(r.DependsOn) > 0 {
			deps := make([]cty.Value, 0, len(r.DependsOn))
			for _, d := range r.DependsOn {
				deps = append(deps, cty.StringVal(d))
			}
			rb.SetAttributeValue("depends_on", cty.ListVal(deps))
		}
		if r.DeletionPolicy != "" {
			rb.SetAttributeValue("deletion_policy", cty.StringVal(r.DeletionPolicy))
		}
		if r.UpdateReplacePolicy != "" {
			rb.SetAttributeValue("update_replace_policy", cty.StringVal(r.UpdateReplacePolicy))
		}
	}

	names := make([]string, 0, len(g.outputs))
	for name := range g.outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		o := g.outputs[name]
		value, err := toCty(o.Value)
		if err != nil {
			return nil, fmt.Errorf("output %s: %w", name, err)
		}
		body.AppendNewline()
		ob := body.AppendNewBlock("output", []string{name}).Body()
		if o.Description != "" {
			ob.SetAttributeValue("description", cty.StringVal(o.Description))
		}
		ob.SetAttributeValue("value", value)
	}

	return f.Bytes(), nil
}

// toCty converts a property value, intrinsics included, into a cty value.
func toCty(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(x), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case float64:
		return cty.NumberFloatVal(x), nil
	case []string:
		items := make([]any, len(x))
		for i, s := range x {
			items[i] = s
		}
		return toCty(items)
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		items := make([]cty.Value, 0, len(x))
		for _, item := range x {
			cv, err := toCty(item)
			if err != nil {
				return cty.NilVal, err
			}
			items = append(items, cv)
		}
		return cty.TupleVal(items), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for k, item := range x {
			cv, err := toCty(item)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	case Ref:
		return cty.ObjectVal(map[string]cty.Value{"Ref": cty.StringVal(x.ID)}), nil
	case GetAtt:
		return cty.ObjectVal(map[string]cty.Value{
			"Fn::GetAtt": cty.TupleVal([]cty.Value{cty.StringVal(x.ID), cty.StringVal(x.Attribute)}),
		}), nil
	case Sub:
		return cty.ObjectVal(map[string]cty.Value{"Fn::Sub": cty.StringVal(x.Template)}), nil
	case Join:
		parts, err := toCty(x.Parts)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.ObjectVal(map[string]cty.Value{
			"Fn::Join": cty.TupleVal([]cty.Value{cty.StringVal(x.Separator), parts}),
		}), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported property value %T", v)
	}
}
