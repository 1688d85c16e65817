package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/davoodharun/apistack/internal/validate"
)

// Process-level overrides read by Resolve.
const (
	EnvZoneID         = "ZONE_ID"
	EnvZoneName       = "ZONE_NAME"
	EnvDomain         = "DOMAIN"
	EnvCertificateRef = "CERTIFICATE_REF"
	EnvRegion         = "REGION"
)

// Defaults applied during resolution.
const (
	DefaultRegion           = "ap-northeast-1"
	DefaultPort             = 3000
	DefaultDesiredCount     = 1
	DefaultCPU              = 256
	DefaultMemory           = 512
	DefaultEngine           = "mysql"
	DefaultInstanceClass    = "db.t3.micro"
	DefaultAllocatedStorage = 20
	DefaultStreamPrefix     = "ecs"

	// MaxZones is the subnet capacity bound: public blocks use third octets
	// 1-10 and private blocks 11-20.
	MaxZones = 10
)

// Execution role modes.
const (
	RoleModeCreate   = "create"
	RoleModeExisting = "existing"
)

// Database removal policies.
const (
	RemovalDestroy  = "destroy"
	RemovalSnapshot = "snapshot"
	RemovalRetain   = "retain"
)

// Lookup reads a process-level override.
type Lookup func(key string) (string, bool)

// EnvLookup reads overrides from the process environment.
var EnvLookup Lookup = os.LookupEnv

// StageContext is the fully resolved configuration for one deployment
// environment. It is produced once by Resolve and never mutated afterwards;
// the builders only read it.
type StageContext struct {
	Env               string
	Name              string
	Region            string
	AvailabilityZones []string
	Features          FeatureSet
	DNS               DNS
	LoadBalancer      LoadBalancer
	Service           ResolvedService
	ExecutionRole     ExecutionRole
	Logging           Logging
	Data              Data
}

// ResolvedService is Service with every default applied.
type ResolvedService struct {
	Name         string
	Command      []string
	Port         int
	DesiredCount int
	CPU          int
	Memory       int
	Repository   string
	Environment  map[string]string
	Secrets      map[string]string
}

// Has reports whether an optional builder is enabled.
func (c StageContext) Has(f Feature) bool {
	return c.Features.Has(f)
}

// ParameterPath returns the parameter store path for a service key,
// following /{environment}/{service-name}/{key}.
func (c StageContext) ParameterPath(key string) string {
	return fmt.Sprintf("/%s/%s/%s", c.Env, c.Service.Name, strings.TrimPrefix(key, "/"))
}

// Resolve looks up env in file, applies overrides and defaults, and
// validates the result. Every problem is reported as a ConfigurationError.
func Resolve(env string, file *File, lookup Lookup) (StageContext, error) {
	if file == nil {
		return StageContext{}, validate.Configuration("stages", "no stage configuration loaded")
	}
	stage, ok := file.Stages[env]
	if !ok {
		return StageContext{}, validate.Configuration("env", "environment %q is not defined (known: %s)", env, strings.Join(file.Environments(), ", "))
	}
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}

	applyOverrides(&stage, lookup)

	var issues validate.Issues
	sc := StageContext{
		Env:          env,
		Name:         stage.Name,
		Region:       stage.Region,
		DNS:          stage.DNS,
		LoadBalancer: stage.LoadBalancer,
		Logging:      stage.Logging,
		Data:         stage.Data,
	}
	if sc.Region == "" {
		sc.Region = DefaultRegion
	}

	features, err := resolveFeatures(stage)
	if err != nil {
		issues.Merge(err)
	}
	sc.Features = features

	sc.AvailabilityZones = append([]string(nil), stage.AvailabilityZones...)
	if len(sc.AvailabilityZones) == 0 {
		sc.AvailabilityZones = []string{sc.Region + "a", sc.Region + "c"}
		if len(stage.Features) == 0 && stage.Variant == VariantMinimal {
			sc.AvailabilityZones = sc.AvailabilityZones[:1]
		}
	}

	sc.Service = resolveService(env, stage)
	sc.ExecutionRole = stage.ExecutionRole
	if sc.ExecutionRole.Mode == "" {
		sc.ExecutionRole.Mode = RoleModeCreate
	}
	if sc.Logging.Group == "" {
		sc.Logging.Group = "/aws/ecs/" + sc.Name
	}
	if sc.Logging.StreamPrefix == "" {
		sc.Logging.StreamPrefix = DefaultStreamPrefix
	}
	resolveData(&sc)

	if err := sc.Validate(); err != nil {
		issues.Merge(err)
	}
	if err := issues.OrNil(); err != nil {
		return StageContext{}, err
	}
	return sc, nil
}

func applyOverrides(stage *Stage, lookup Lookup) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvZoneID, &stage.DNS.ZoneID)
	set(EnvZoneName, &stage.DNS.ZoneName)
	set(EnvDomain, &stage.DNS.Domain)
	set(EnvCertificateRef, &stage.LoadBalancer.Listener.Certificate.Ref)
	set(EnvRegion, &stage.Region)
}

func resolveFeatures(stage Stage) (FeatureSet, error) {
	if len(stage.Features) > 0 {
		var issues validate.Issues
		features := make([]Feature, 0, len(stage.Features))
		for _, name := range stage.Features {
			if !knownFeature(name) {
				issues.Add("features", "unknown feature %q", name)
				continue
			}
			features = append(features, Feature(name))
		}
		return NewFeatureSet(features...), issues.OrNil()
	}

	variant := stage.Variant
	if variant == "" {
		variant = VariantFull
	}
	features, ok := VariantFeatures(variant)
	if !ok {
		return nil, validate.Configuration("variant", "unknown topology variant %q", variant)
	}
	return features, nil
}

func resolveService(env string, stage Stage) ResolvedService {
	in := stage.Service
	svc := ResolvedService{
		Name:        in.Name,
		Command:     append([]string(nil), in.Command...),
		Port:        in.Port,
		CPU:         in.CPU,
		Memory:      in.Memory,
		Repository:  in.Image.Repository,
		Environment: copyMap(in.Environment),
		Secrets:     copyMap(in.Secrets),
	}
	if svc.Name == "" {
		svc.Name = strings.TrimSuffix(stage.Name, "-"+env)
	}
	if svc.Port == 0 {
		svc.Port = DefaultPort
	}
	svc.DesiredCount = DefaultDesiredCount
	if in.DesiredCount != nil {
		svc.DesiredCount = *in.DesiredCount
	}
	if svc.CPU == 0 {
		svc.CPU = DefaultCPU
	}
	if svc.Memory == 0 {
		svc.Memory = DefaultMemory
	}
	if svc.Repository == "" {
		svc.Repository = svc.Name
	}
	return svc
}

func resolveData(sc *StageContext) {
	if sc.Data.Engine == "" {
		sc.Data.Engine = DefaultEngine
	}
	if sc.Data.AvailabilityZone == "" && len(sc.AvailabilityZones) > 0 {
		sc.Data.AvailabilityZone = sc.AvailabilityZones[0]
	}
	if sc.Data.RemovalPolicy == "" {
		sc.Data.RemovalPolicy = RemovalDestroy
	}
	if sc.Data.InstanceClass == "" {
		sc.Data.InstanceClass = DefaultInstanceClass
	}
	if sc.Data.AllocatedStorage == 0 {
		sc.Data.AllocatedStorage = DefaultAllocatedStorage
	}
}

// Validate checks the invariants the builders rely on. Resolve calls it;
// callers that assemble a StageContext by hand should call it too.
func (c StageContext) Validate() error {
	var issues validate.Issues
	issues.Merge(validate.StageName(c.Name))
	issues.Merge(validate.Region(c.Region))

	if len(c.AvailabilityZones) == 0 {
		issues.Add("availabilityZones", "at least one availability zone is required")
	}
	if len(c.AvailabilityZones) > MaxZones {
		issues.Add("availabilityZones", "at most %d availability zones are supported, got %d", MaxZones, len(c.AvailabilityZones))
	}
	seen := make(map[string]bool, len(c.AvailabilityZones))
	for _, az := range c.AvailabilityZones {
		issues.Merge(validate.AvailabilityZone(c.Region, az))
		if seen[az] {
			issues.Add("availabilityZones", "zone %s listed twice", az)
		}
		seen[az] = true
	}

	if c.Has(FeatureEdge) {
		if strings.TrimSpace(c.LoadBalancer.Listener.Certificate.Ref) == "" {
			issues.Add("loadBalancer.listener.certificate.ref", "certificate reference is required when the edge builder is enabled")
		}
		issues.Merge(validate.ResourceName("loadBalancer", c.Name+"-alb"))
		issues.Merge(validate.ResourceName("targetGroup", c.Name+"-tg"))
	}
	if c.Has(FeatureDNS) {
		if !c.Has(FeatureEdge) {
			issues.Add("features", "dns requires the edge builder")
		}
		if strings.TrimSpace(c.DNS.ZoneID) == "" {
			issues.Add("dns.zoneId", "hosted zone id is required when the dns builder is enabled")
		}
		if strings.TrimSpace(c.DNS.ZoneName) == "" {
			issues.Add("dns.zoneName", "hosted zone name is required when the dns builder is enabled")
		}
		if strings.TrimSpace(c.DNS.Domain) == "" {
			issues.Add("dns.domain", "record name is required when the dns builder is enabled")
		}
	}
	if c.Has(FeatureData) {
		switch c.Data.RemovalPolicy {
		case RemovalDestroy, RemovalSnapshot, RemovalRetain:
		default:
			issues.Add("data.removalPolicy", "unknown removal policy %q", c.Data.RemovalPolicy)
		}
		if !seen[c.Data.AvailabilityZone] {
			issues.Add("data.availabilityZone", "zone %s is not one of the stage zones", c.Data.AvailabilityZone)
		}
	}

	if c.Service.Name == "" {
		issues.Add("service.name", "service name cannot be empty")
	}
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		issues.Add("service.port", "port %d is out of range", c.Service.Port)
	}
	if c.Service.DesiredCount < 0 {
		issues.Add("service.desiredCount", "desired count cannot be negative")
	}
	switch c.ExecutionRole.Mode {
	case RoleModeCreate, RoleModeExisting:
	default:
		issues.Add("executionRole.mode", "unknown execution role mode %q", c.ExecutionRole.Mode)
	}

	for _, name := range sortedKeys(c.Service.Secrets) {
		if _, clash := c.Service.Environment[name]; clash {
			issues.Add("service.secrets", "%s is declared both as a secret and as a plain variable", name)
		}
	}

	return issues.OrNil()
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
