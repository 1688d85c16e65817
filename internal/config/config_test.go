package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davoodharun/apistack/internal/validate"
)

const fullStage = `stages:
  stage:
    name: go-auth-api-stage
    availabilityZones: [ap-northeast-1a, ap-northeast-1c]
    dns:
      zoneId: Z123
      zoneName: example.com
      domain: auth
    loadBalancer:
      listener:
        certificate:
          ref: cert-abc
    service:
      name: go-auth-api
      environment:
        LOG_LEVEL: info
      secrets:
        JWT_SECRET: jwt/secret
  dev:
    name: go-auth-api-dev
    variant: minimal
`

func mustParse(t *testing.T, data string) *File {
	t.Helper()
	file, err := Parse([]byte(data))
	require.NoError(t, err)
	return file
}

func lookupOf(values map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestParse(t *testing.T) {
	file := mustParse(t, fullStage)
	assert.Equal(t, []string{"dev", "stage"}, file.Environments())

	_, err := Parse([]byte("stages: {}\n"))
	assert.ErrorContains(t, err, "no stages defined")

	_, err = Parse([]byte("stages: [\n"))
	assert.Error(t, err)
}

func TestResolveDefaults(t *testing.T) {
	sc, err := Resolve("stage", mustParse(t, fullStage), nil)
	require.NoError(t, err)

	assert.Equal(t, "stage", sc.Env)
	assert.Equal(t, DefaultRegion, sc.Region)
	assert.Equal(t, NewFeatureSet(AllFeatures...), sc.Features)
	assert.Equal(t, DefaultPort, sc.Service.Port)
	assert.Equal(t, DefaultDesiredCount, sc.Service.DesiredCount)
	assert.Equal(t, DefaultCPU, sc.Service.CPU)
	assert.Equal(t, DefaultMemory, sc.Service.Memory)
	assert.Equal(t, "go-auth-api", sc.Service.Repository)
	assert.Equal(t, RoleModeCreate, sc.ExecutionRole.Mode)
	assert.Equal(t, "/aws/ecs/go-auth-api-stage", sc.Logging.Group)
	assert.Equal(t, DefaultStreamPrefix, sc.Logging.StreamPrefix)
	assert.Equal(t, "ap-northeast-1a", sc.Data.AvailabilityZone)
	assert.Equal(t, RemovalDestroy, sc.Data.RemovalPolicy)
	assert.Equal(t, "auth.example.com", sc.DNS.RecordName())
	assert.Equal(t, "/stage/go-auth-api/db/port", sc.ParameterPath("db/port"))
	assert.Equal(t, "/stage/go-auth-api/jwt/secret", sc.ParameterPath("/jwt/secret"))

	dev, err := Resolve("dev", mustParse(t, fullStage), nil)
	require.NoError(t, err)
	assert.Empty(t, dev.Features)
	assert.Equal(t, []string{"ap-northeast-1a"}, dev.AvailabilityZones)
	assert.Equal(t, "go-auth-api", dev.Service.Name)
}

func TestResolveOverrides(t *testing.T) {
	file := mustParse(t, fullStage)
	sc, err := Resolve("stage", file, lookupOf(map[string]string{
		EnvZoneID:         "Z999",
		EnvDomain:         " login ",
		EnvCertificateRef: "",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Z999", sc.DNS.ZoneID)
	assert.Equal(t, "login.example.com", sc.DNS.RecordName())
	assert.Equal(t, "cert-abc", sc.LoadBalancer.Listener.Certificate.Ref)

	// The parsed file is not modified by overrides.
	assert.Equal(t, "Z123", file.Stages["stage"].DNS.ZoneID)
}

func TestResolveErrors(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(*Stage)
		env         string
		errContains string
	}{
		{name: "unknown environment", env: "prod", errContains: `environment "prod" is not defined`},
		{name: "missing zone id", mutate: func(s *Stage) { s.DNS.ZoneID = "" }, errContains: "dns.zoneId"},
		{name: "missing zone name", mutate: func(s *Stage) { s.DNS.ZoneName = "" }, errContains: "dns.zoneName"},
		{name: "missing certificate", mutate: func(s *Stage) { s.LoadBalancer.Listener.Certificate.Ref = " " }, errContains: "certificate reference is required"},
		{name: "unknown variant", mutate: func(s *Stage) { s.Variant = "huge" }, errContains: "unknown topology variant"},
		{name: "unknown feature", mutate: func(s *Stage) { s.Features = []string{"edge", "cache"} }, errContains: `unknown feature "cache"`},
		{name: "dns without edge", mutate: func(s *Stage) { s.Features = []string{"dns"} }, errContains: "dns requires the edge builder"},
		{name: "duplicate zone", mutate: func(s *Stage) { s.AvailabilityZones = []string{"ap-northeast-1a", "ap-northeast-1a"} }, errContains: "listed twice"},
		{name: "zone outside region", mutate: func(s *Stage) { s.AvailabilityZones = []string{"us-east-1a"} }, errContains: "zone is not in region"},
		{name: "too many zones", mutate: func(s *Stage) {
			s.AvailabilityZones = nil
			for _, l := range "abcdefghijk" {
				s.AvailabilityZones = append(s.AvailabilityZones, "ap-northeast-1"+string(l))
			}
		}, errContains: "at most 10"},
		{name: "bad region", mutate: func(s *Stage) { s.Region = "mars-1" }, errContains: "invalid AWS region"},
		{name: "bad stage name", mutate: func(s *Stage) { s.Name = "go-Auth" }, errContains: "uppercase"},
		{name: "long target group name", mutate: func(s *Stage) { s.Name = "a-very-long-stage-name-for-tg-x" }, errContains: "exceeds 32"},
		{name: "bad removal policy", mutate: func(s *Stage) { s.Data.RemovalPolicy = "keep" }, errContains: "unknown removal policy"},
		{name: "data zone not a stage zone", mutate: func(s *Stage) { s.Data.AvailabilityZone = "ap-northeast-1d" }, errContains: "not one of the stage zones"},
		{name: "bad port", mutate: func(s *Stage) { s.Service.Port = 70000 }, errContains: "out of range"},
		{name: "negative desired count", mutate: func(s *Stage) { n := -1; s.Service.DesiredCount = &n }, errContains: "cannot be negative"},
		{name: "bad role mode", mutate: func(s *Stage) { s.ExecutionRole.Mode = "borrow" }, errContains: "unknown execution role mode"},
		{name: "secret clashes with variable", mutate: func(s *Stage) { s.Service.Environment["JWT_SECRET"] = "x" }, errContains: "both as a secret"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			file := mustParse(t, fullStage)
			if tc.mutate != nil {
				stage := file.Stages["stage"]
				tc.mutate(&stage)
				file.Stages["stage"] = stage
			}
			env := tc.env
			if env == "" {
				env = "stage"
			}

			_, err := Resolve(env, file, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, validate.ErrConfiguration)
			assert.ErrorContains(t, err, tc.errContains)
		})
	}
}

func TestResolveReportsAllIssues(t *testing.T) {
	file := mustParse(t, fullStage)
	stage := file.Stages["stage"]
	stage.DNS = DNS{}
	stage.LoadBalancer = LoadBalancer{}
	file.Stages["stage"] = stage

	_, err := Resolve("stage", file, nil)
	var issues validate.Issues
	require.ErrorAs(t, err, &issues)
	assert.Len(t, issues, 4)
}

func TestResolveNilFile(t *testing.T) {
	_, err := Resolve("stage", nil, nil)
	assert.ErrorIs(t, err, validate.ErrConfiguration)
}

const hclStages = `
stage "stage" {
  name               = "go-auth-api-stage"
  availability_zones = ["ap-northeast-1a", "ap-northeast-1c"]
  certificate_ref    = "cert-abc"

  dns {
    zone_id   = "Z123"
    zone_name = "example.com"
    domain    = "auth"
  }

  service {
    name          = "go-auth-api"
    desired_count = 0
    secrets = {
      JWT_SECRET = "jwt/secret"
    }
  }

  data {
    removal_policy = "snapshot"
  }
}

stage "dev" {
  name    = "go-auth-api-dev"
  variant = "minimal"
}
`

func TestParseHCL(t *testing.T) {
	file, err := ParseHCL("apistack.hcl", []byte(hclStages))
	require.NoError(t, err)
	assert.Equal(t, []string{"dev", "stage"}, file.Environments())

	sc, err := Resolve("stage", file, nil)
	require.NoError(t, err)
	assert.Equal(t, "cert-abc", sc.LoadBalancer.Listener.Certificate.Ref)
	assert.Equal(t, "auth.example.com", sc.DNS.RecordName())
	assert.Equal(t, 0, sc.Service.DesiredCount)
	assert.Equal(t, map[string]string{"JWT_SECRET": "jwt/secret"}, sc.Service.Secrets)
	assert.Equal(t, RemovalSnapshot, sc.Data.RemovalPolicy)

	_, err = ParseHCL("apistack.hcl", []byte(`stage "a" { name = "a" }
stage "a" { name = "b" }`))
	assert.ErrorContains(t, err, "declared twice")

	_, err = ParseHCL("apistack.hcl", []byte(`stage "a" {`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "apistack.yaml")
	hclPath := filepath.Join(dir, "apistack.hcl")
	require.NoError(t, os.WriteFile(yamlPath, []byte(fullStage), 0644))
	require.NoError(t, os.WriteFile(hclPath, []byte(hclStages), 0644))

	fromYAML, err := Load(yamlPath)
	require.NoError(t, err)
	fromHCL, err := Load(hclPath)
	require.NoError(t, err)
	assert.Equal(t, fromYAML.Environments(), fromHCL.Environments())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFeatureSet(t *testing.T) {
	set := NewFeatureSet(FeatureDNS, FeatureEdge, FeatureDNS)
	assert.Equal(t, FeatureSet{FeatureDNS, FeatureEdge}, set)
	assert.True(t, set.Has(FeatureEdge))
	assert.False(t, set.Has(FeatureData))
	assert.Equal(t, "dns,edge", set.String())
	assert.Equal(t, "none", NewFeatureSet().String())

	full, ok := VariantFeatures(VariantFull)
	require.True(t, ok)
	assert.Len(t, full, len(AllFeatures))
	_, ok = VariantFeatures("tiny")
	assert.False(t, ok)
}
