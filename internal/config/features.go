package config

import (
	"sort"
	"strings"
)

// Feature names an optional builder.
type Feature string

const (
	FeatureEdge    Feature = "edge"
	FeatureData    Feature = "data"
	FeatureDNS     Feature = "dns"
	FeatureBastion Feature = "bastion"
)

// AllFeatures lists every optional builder in assembly order.
var AllFeatures = []Feature{FeatureEdge, FeatureData, FeatureDNS, FeatureBastion}

// Variant presets. A stage selects one by name or lists features explicitly.
const (
	VariantFull    = "full"
	VariantMinimal = "minimal"
)

var variants = map[string][]Feature{
	VariantFull:    {FeatureEdge, FeatureData, FeatureDNS, FeatureBastion},
	VariantMinimal: {},
}

// FeatureSet is a sorted, duplicate-free set of enabled features.
type FeatureSet []Feature

// NewFeatureSet normalizes the given features.
func NewFeatureSet(features ...Feature) FeatureSet {
	seen := make(map[Feature]bool, len(features))
	set := make(FeatureSet, 0, len(features))
	for _, f := range features {
		if seen[f] {
			continue
		}
		seen[f] = true
		set = append(set, f)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set
}

// VariantFeatures returns the preset for a variant name.
func VariantFeatures(variant string) (FeatureSet, bool) {
	features, ok := variants[variant]
	if !ok {
		return nil, false
	}
	return NewFeatureSet(features...), true
}

// Has reports whether f is enabled.
func (s FeatureSet) Has(f Feature) bool {
	for _, x := range s {
		if x == f {
			return true
		}
	}
	return false
}

func (s FeatureSet) String() string {
	if len(s) == 0 {
		return "none"
	}
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

func knownFeature(name string) bool {
	for _, f := range AllFeatures {
		if string(f) == name {
			return true
		}
	}
	return false
}
