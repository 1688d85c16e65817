package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where init writes the stage configuration.
const DefaultPath = "apistack.yaml"

// File is the raw stage configuration, keyed by environment name.
type File struct {
	Stages map[string]Stage `yaml:"stages"`
}

// Stage is one environment entry before resolution.
type Stage struct {
	Name              string        `yaml:"name"`
	Region            string        `yaml:"region,omitempty"`
	AvailabilityZones []string      `yaml:"availabilityZones,omitempty"`
	Variant           string        `yaml:"variant,omitempty"`
	Features          []string      `yaml:"features,omitempty"`
	DNS               DNS           `yaml:"dns,omitempty"`
	LoadBalancer      LoadBalancer  `yaml:"loadBalancer,omitempty"`
	Service           Service       `yaml:"service,omitempty"`
	ExecutionRole     ExecutionRole `yaml:"executionRole,omitempty"`
	Logging           Logging       `yaml:"logging,omitempty"`
	Data              Data          `yaml:"data,omitempty"`
}

// DNS names the existing hosted zone and the record to bind.
type DNS struct {
	ZoneID   string `yaml:"zoneId,omitempty"`
	ZoneName string `yaml:"zoneName,omitempty"`
	Domain   string `yaml:"domain,omitempty"`
}

// RecordName is the fully qualified alias record name.
func (d DNS) RecordName() string {
	if d.Domain == "" {
		return d.ZoneName
	}
	return d.Domain + "." + d.ZoneName
}

// LoadBalancer holds the listener settings.
type LoadBalancer struct {
	Listener Listener `yaml:"listener,omitempty"`
}

// Listener holds the HTTPS listener certificate.
type Listener struct {
	Certificate Certificate `yaml:"certificate,omitempty"`
}

// Certificate references an issued TLS certificate by id.
type Certificate struct {
	Ref string `yaml:"ref,omitempty"`
}

// Service describes the container workload.
type Service struct {
	Name         string            `yaml:"name,omitempty"`
	Command      []string          `yaml:"command,omitempty"`
	Port         int               `yaml:"port,omitempty"`
	DesiredCount *int              `yaml:"desiredCount,omitempty"`
	CPU          int               `yaml:"cpu,omitempty"`
	Memory       int               `yaml:"memory,omitempty"`
	Image        Image             `yaml:"image,omitempty"`
	Environment  map[string]string `yaml:"environment,omitempty"`
	Secrets      map[string]string `yaml:"secrets,omitempty"`
}

// Image locates the container repository; the tag is always the revision.
type Image struct {
	Repository string `yaml:"repository,omitempty"`
}

// ExecutionRole selects how the task execution identity is obtained.
type ExecutionRole struct {
	Mode string `yaml:"mode,omitempty"`
	ARN  string `yaml:"arn,omitempty"`
}

// Logging points the container log driver at an existing log group.
type Logging struct {
	Group        string `yaml:"group,omitempty"`
	StreamPrefix string `yaml:"streamPrefix,omitempty"`
}

// Data configures the optional database instance.
type Data struct {
	Engine           string `yaml:"engine,omitempty"`
	AvailabilityZone string `yaml:"availabilityZone,omitempty"`
	RemovalPolicy    string `yaml:"removalPolicy,omitempty"`
	InstanceClass    string `yaml:"instanceClass,omitempty"`
	AllocatedStorage int    `yaml:"allocatedStorage,omitempty"`
}

// Load reads a stage configuration file. Files ending in .hcl are decoded as
// HCL, everything else as YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return ParseHCL(filepath.Base(path), data)
	}
	return Parse(data)
}

// Parse decodes YAML stage configuration.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse stage config: %w", err)
	}
	if len(file.Stages) == 0 {
		return nil, fmt.Errorf("failed to parse stage config: no stages defined")
	}
	return &file, nil
}

// Environments returns the configured environment keys in sorted order.
func (f *File) Environments() []string {
	envs := make([]string, 0, len(f.Stages))
	for env := range f.Stages {
		envs = append(envs, env)
	}
	sort.Strings(envs)
	return envs
}
