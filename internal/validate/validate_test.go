package validate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageName(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "valid", input: "go-auth-api-stage"},
		{name: "digits", input: "0api"},
		{name: "empty", input: "", wantErr: "cannot be empty"},
		{name: "leading hyphen", input: "-api", wantErr: "must start with"},
		{name: "uppercase", input: "apiStage", wantErr: "uppercase"},
		{name: "consecutive hyphens", input: "api--stage", wantErr: "consecutive hyphens"},
		{name: "trailing hyphen", input: "api-", wantErr: "end with a hyphen"},
		{name: "underscore", input: "api_stage", wantErr: "only contain"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := StageName(tc.input)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestRegionAndZone(t *testing.T) {
	assert.NoError(t, Region("ap-northeast-1"))
	assert.Error(t, Region("ap-northeast-9"))

	assert.NoError(t, AvailabilityZone("ap-northeast-1", "ap-northeast-1c"))
	assert.ErrorContains(t, AvailabilityZone("ap-northeast-1", "us-east-1a"), "not in region")
	assert.ErrorContains(t, AvailabilityZone("ap-northeast-1", "ap-northeast-1ab"), "single letter")

	assert.NoError(t, ResourceName("alb", "go-auth-api-stage-alb"))
	assert.Error(t, ResourceName("alb", "an-extremely-long-load-balancer-name"))
}

func TestErrorTaxonomy(t *testing.T) {
	cfg := Configuration("dns.zoneId", "hosted zone id is required")
	assert.True(t, errors.Is(cfg, ErrConfiguration))
	assert.False(t, errors.Is(cfg, ErrProvision))
	assert.Equal(t, "configuration error: dns.zoneId: hosted zone id is required", cfg.Error())

	cause := errors.New("exit status 128")
	prov := Provision("image revision", "git rev-parse failed", cause)
	wrapped := fmt.Errorf("failed to build compute: %w", prov)
	assert.ErrorIs(t, wrapped, ErrProvision)
	assert.ErrorIs(t, wrapped, cause)

	var pe ProvisionError
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, "image revision", pe.Resource)
}

func TestIssues(t *testing.T) {
	var issues Issues
	assert.NoError(t, issues.OrNil())

	issues.Add("a", "first")
	issues.Add("b", " ")
	assert.True(t, issues.Merge(Configuration("c", "second")))
	assert.True(t, issues.Merge(Issues{{Context: "d", Message: "third"}}))
	assert.False(t, issues.Merge(errors.New("other")))
	assert.False(t, issues.Merge(nil))

	err := issues.OrNil()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "configuration error: a: first; c: second; d: third", err.Error())
}
