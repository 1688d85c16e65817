package stack

import (
	"strings"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/resource"
	"github.com/davoodharun/apistack/internal/validate"
)

// RecordSetType is the resource type of alias records.
const RecordSetType = "AWS::Route53::RecordSet"

// BuildDNS binds an alias record in an existing hosted zone to the load
// balancer. The zone itself is never created.
func BuildDNS(g *resource.Graph, sc config.StageContext, edge *Edge) (*resource.Resource, error) {
	var issues validate.Issues
	if strings.TrimSpace(sc.DNS.ZoneID) == "" {
		issues.Add("dns.zoneId", "hosted zone id cannot be empty")
	}
	if strings.TrimSpace(sc.DNS.ZoneName) == "" {
		issues.Add("dns.zoneName", "hosted zone name cannot be empty")
	}
	if err := issues.OrNil(); err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, validate.Configuration("features", "dns requires the edge builder")
	}

	return g.Add("dns/alias-record", RecordSetType, resource.Properties{
		"HostedZoneId": sc.DNS.ZoneID,
		"Name":         sc.DNS.RecordName(),
		"Type":         "A",
		"AliasTarget": map[string]any{
			"DNSName":              resource.Join{Separator: "", Parts: []any{"dualstack.", edge.LoadBalancer.GetAtt("DNSName")}},
			"HostedZoneId":         edge.LoadBalancer.GetAtt("CanonicalHostedZoneID"),
			"EvaluateTargetHealth": false,
		},
	})
}
