package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

type hclFile struct {
	Stages []hclStage `hcl:"stage,block"`
}

type hclStage struct {
	Env               string            `hcl:"env,label"`
	Name              string            `hcl:"name"`
	Region            string            `hcl:"region,optional"`
	AvailabilityZones []string          `hcl:"availability_zones,optional"`
	Variant           string            `hcl:"variant,optional"`
	Features          []string          `hcl:"features,optional"`
	CertificateRef    string            `hcl:"certificate_ref,optional"`
	DNS               *hclDNS           `hcl:"dns,block"`
	Service           *hclService       `hcl:"service,block"`
	ExecutionRole     *hclExecutionRole `hcl:"execution_role,block"`
	Logging           *hclLogging       `hcl:"logging,block"`
	Data              *hclData          `hcl:"data,block"`
}

type hclDNS struct {
	ZoneID   string `hcl:"zone_id,optional"`
	ZoneName string `hcl:"zone_name,optional"`
	Domain   string `hcl:"domain,optional"`
}

type hclService struct {
	Name            string            `hcl:"name,optional"`
	Command         []string          `hcl:"command,optional"`
	Port            int               `hcl:"port,optional"`
	DesiredCount    *int              `hcl:"desired_count,optional"`
	CPU             int               `hcl:"cpu,optional"`
	Memory          int               `hcl:"memory,optional"`
	ImageRepository string            `hcl:"image_repository,optional"`
	Environment     map[string]string `hcl:"environment,optional"`
	Secrets         map[string]string `hcl:"secrets,optional"`
}

type hclExecutionRole struct {
	Mode string `hcl:"mode,optional"`
	ARN  string `hcl:"arn,optional"`
}

type hclLogging struct {
	Group        string `hcl:"group,optional"`
	StreamPrefix string `hcl:"stream_prefix,optional"`
}

type hclData struct {
	Engine           string `hcl:"engine,optional"`
	AvailabilityZone string `hcl:"availability_zone,optional"`
	RemovalPolicy    string `hcl:"removal_policy,optional"`
	InstanceClass    string `hcl:"instance_class,optional"`
	AllocatedStorage int    `hcl:"allocated_storage,optional"`
}

// ParseHCL decodes HCL stage configuration. filename must end in .hcl and is
// only used for diagnostics.
func ParseHCL(filename string, data []byte) (*File, error) {
	var raw hclFile
	if err := hclsimple.Decode(filename, data, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse stage config: %w", err)
	}
	if len(raw.Stages) == 0 {
		return nil, fmt.Errorf("failed to parse stage config: no stages defined")
	}

	file := &File{Stages: make(map[string]Stage, len(raw.Stages))}
	for _, s := range raw.Stages {
		if _, dup := file.Stages[s.Env]; dup {
			return nil, fmt.Errorf("failed to parse stage config: stage %q declared twice", s.Env)
		}
		stage := Stage{
			Name:              s.Name,
			Region:            s.Region,
			AvailabilityZones: s.AvailabilityZones,
			Variant:           s.Variant,
			Features:          s.Features,
		}
		stage.LoadBalancer.Listener.Certificate.Ref = s.CertificateRef
		if s.DNS != nil {
			stage.DNS = DNS{ZoneID: s.DNS.ZoneID, ZoneName: s.DNS.ZoneName, Domain: s.DNS.Domain}
		}
		if s.Service != nil {
			stage.Service = Service{
				Name:         s.Service.Name,
				Command:      s.Service.Command,
				Port:         s.Service.Port,
				DesiredCount: s.Service.DesiredCount,
				CPU:          s.Service.CPU,
				Memory:       s.Service.Memory,
				Image:        Image{Repository: s.Service.ImageRepository},
				Environment:  s.Service.Environment,
				Secrets:      s.Service.Secrets,
			}
		}
		if s.ExecutionRole != nil {
			stage.ExecutionRole = ExecutionRole{Mode: s.ExecutionRole.Mode, ARN: s.ExecutionRole.ARN}
		}
		if s.Logging != nil {
			stage.Logging = Logging{Group: s.Logging.Group, StreamPrefix: s.Logging.StreamPrefix}
		}
		if s.Data != nil {
			stage.Data = Data{
				Engine:           s.Data.Engine,
				AvailabilityZone: s.Data.AvailabilityZone,
				RemovalPolicy:    s.Data.RemovalPolicy,
				InstanceClass:    s.Data.InstanceClass,
				AllocatedStorage: s.Data.AllocatedStorage,
			}
		}
		file.Stages[s.Env] = stage
	}
	return file, nil
}
