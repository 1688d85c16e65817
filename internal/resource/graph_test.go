package resource

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLogicalID(t *testing.T) {
	testCases := []struct {
		name   string
		path   string
		prefix string
	}{
		{name: "simple path", path: "network/vpc", prefix: "NetworkVpc"},
		{name: "dashes and dots", path: "edge/alb-listener.https", prefix: "EdgeAlbListenerHttps"},
		{name: "digits kept", path: "network/subnet-1a", prefix: "NetworkSubnet1a"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id := LogicalID(tc.path)
			assert.True(t, strings.HasPrefix(id, tc.prefix), id)
			assert.Len(t, id, len(tc.prefix)+8)
			assert.Equal(t, id, LogicalID(tc.path))
		})
	}

	// Paths that share alphanumerics still get distinct ids.
	assert.NotEqual(t, LogicalID("a-b/c"), LogicalID("ab/c"))
}

func TestAddRejectsDuplicates(t *testing.T) {
	g := New("test")
	_, err := g.Add("network/vpc", "AWS::EC2::VPC", nil)
	require.NoError(t, err)

	_, err = g.Add("network/vpc", "AWS::EC2::VPC", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate resource")

	_, err = g.Add("", "AWS::EC2::VPC", nil)
	require.Error(t, err)
}

func TestDependenciesCollectsImplicitAndExplicit(t *testing.T) {
	g := New("test")
	vpc, err := g.Add("vpc", "AWS::EC2::VPC", nil)
	require.NoError(t, err)
	igw, err := g.Add("igw", "AWS::EC2::InternetGateway", nil)
	require.NoError(t, err)
	role, err := g.Add("role", "AWS::IAM::Role", nil)
	require.NoError(t, err)
	subnet, err := g.Add("subnet", "AWS::EC2::Subnet", Properties{
		"VpcId": vpc.Ref(),
		"Tags": []any{
			map[string]any{"Key": "Owner", "Value": Sub{Template: "${" + role.LogicalID + ".Arn}-${AWS::Region}"}},
		},
		"Name": Join{Separator: "-", Parts: []any{"x", igw.GetAtt("InternetGatewayId")}},
	})
	require.NoError(t, err)
	subnet.DependOn(igw, subnet, nil)

	deps, err := g.Dependencies(subnet.LogicalID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{vpc.LogicalID, igw.LogicalID, role.LogicalID}, deps)
	assert.Equal(t, []string{igw.LogicalID}, subnet.DependsOn)

	_, err = g.Dependencies("Missing")
	require.Error(t, err)
}

func TestOrderIsTopologicalAndDeterministic(t *testing.T) {
	build := func() *Graph {
		g := New("test")
		vpc, _ := g.Add("vpc", "AWS::EC2::VPC", nil)
		igw, _ := g.Add("igw", "AWS::EC2::InternetGateway", nil)
		attach, _ := g.Add("attach", "AWS::EC2::VPCGatewayAttachment", Properties{
			"VpcId":             vpc.Ref(),
			"InternetGatewayId": igw.Ref(),
		})
		rt, _ := g.Add("rt", "AWS::EC2::RouteTable", Properties{"VpcId": vpc.Ref()})
		route, _ := g.Add("route", "AWS::EC2::Route", Properties{
			"RouteTableId": rt.Ref(),
			"GatewayId":    igw.Ref(),
		})
		route.DependOn(attach)
		return g
	}

	g := build()
	ordered, err := g.Order()
	require.NoError(t, err)
	require.Len(t, ordered, 5)

	position := make(map[string]int)
	for i, r := range ordered {
		position[r.Path] = i
	}
	assert.Less(t, position["vpc"], position["attach"])
	assert.Less(t, position["igw"], position["attach"])
	assert.Less(t, position["attach"], position["route"])
	assert.Less(t, position["rt"], position["route"])

	again, err := build().Order()
	require.NoError(t, err)
	for i := range ordered {
		assert.Equal(t, ordered[i].LogicalID, again[i].LogicalID)
	}

	waves, err := g.Waves()
	require.NoError(t, err)
	require.Len(t, waves, 3)
	assert.Len(t, waves[0], 2)
	assert.Equal(t, "route", waves[2][0].Path)
}

func TestValidateDetectsProblems(t *testing.T) {
	t.Run("dangling reference", func(t *testing.T) {
		g := New("test")
		_, err := g.Add("subnet", "AWS::EC2::Subnet", Properties{"VpcId": Ref{ID: "Nowhere"}})
		require.NoError(t, err)
		err = g.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown resource Nowhere")
	})

	t.Run("dangling output", func(t *testing.T) {
		g := New("test")
		g.AddOutput("Missing", GetAtt{ID: "Nowhere", Attribute: "Arn"}, "")
		require.Error(t, g.Validate())
	})

	t.Run("cycle", func(t *testing.T) {
		g := New("test")
		a, _ := g.Add("a", "Test::A", nil)
		b, _ := g.Add("b", "Test::B", Properties{"Peer": a.Ref()})
		a.DependOn(b)
		err := g.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})
}

func TestRenderers(t *testing.T) {
	g := New("render test")
	vpc, err := g.Add("vpc", "AWS::EC2::VPC", Properties{"CidrBlock": "10.0.0.0/16", "EnableDnsSupport": true})
	require.NoError(t, err)
	db, err := g.Add("db", "AWS::RDS::DBInstance", Properties{
		"AllocatedStorage":   "20",
		"MasterUserPassword": "{{resolve:ssm-secure:/stage/auth/db/pass}}",
		"Tags":               []any{map[string]any{"Key": "Name", "Value": Sub{Template: "${AWS::StackName}-db"}}},
		"Port":               3306,
	})
	require.NoError(t, err)
	db.DependOn(vpc)
	db.SetRemovalPolicy(PolicyDelete)
	g.AddOutput("VpcId", vpc.Ref(), "network id")

	t.Run("json", func(t *testing.T) {
		data, err := g.JSON()
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "2010-09-09", doc["AWSTemplateFormatVersion"])
		resources := doc["Resources"].(map[string]any)
		entry := resources[db.LogicalID].(map[string]any)
		assert.Equal(t, "Delete", entry["DeletionPolicy"])
		assert.Equal(t, []any{vpc.LogicalID}, entry["DependsOn"])
		outputs := doc["Outputs"].(map[string]any)
		assert.Equal(t, map[string]any{"Ref": vpc.LogicalID}, outputs["VpcId"].(map[string]any)["Value"])

		again, err := g.JSON()
		require.NoError(t, err)
		assert.Equal(t, string(data), string(again))
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := g.YAML()
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, yaml.Unmarshal(data, &doc))
		assert.Contains(t, string(data), "Fn::Sub")
		assert.Contains(t, string(data), "${AWS::StackName}-db")
		assert.Contains(t, doc["Resources"], vpc.LogicalID)
	})

	t.Run("hcl", func(t *testing.T) {
		data, err := g.HCL()
		require.NoError(t, err)
		_, diags := hclparse.NewParser().ParseHCL(data, "template.hcl")
		require.False(t, diags.HasErrors(), diags.Error())
		assert.Contains(t, string(data), `resource "AWS::EC2::VPC" "`+vpc.LogicalID+`"`)
		assert.Contains(t, string(data), `"$${AWS::StackName}-db"`)
	})

	t.Run("generic", func(t *testing.T) {
		doc, err := g.Generic()
		require.NoError(t, err)
		resources := doc["Resources"].(map[string]any)
		assert.Len(t, resources, 2)
	})
}
