package stack

import (
	"fmt"
	"strings"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/resource"
	"github.com/davoodharun/apistack/internal/validate"
)

// Health check settings of the target group.
const (
	HealthCheckPath     = "/health"
	HealthCheckInterval = 60
	HealthyHTTPCodes    = "200"
)

// Edge is the output of the edge builder.
type Edge struct {
	LoadBalancer  *resource.Resource
	HTTPListener  *resource.Resource
	HTTPSListener *resource.Resource
	TargetGroup   *resource.Resource
}

// CertificateARN expands a certificate id to an ACM ARN. Full ARNs pass
// through unchanged.
func CertificateARN(sc config.StageContext) any {
	ref := strings.TrimSpace(sc.LoadBalancer.Listener.Certificate.Ref)
	if strings.HasPrefix(ref, "arn:") {
		return ref
	}
	return resource.Sub{Template: fmt.Sprintf("arn:aws:acm:%s:${AWS::AccountId}:certificate/%s", sc.Region, ref)}
}

// BuildEdge declares the public load balancer, the redirecting HTTP
// listener, the HTTPS listener and the target group, then registers the
// service with the target group.
func BuildEdge(g *resource.Graph, sc config.StageContext, network *Network, sec *Security, compute *Compute) (*Edge, error) {
	if strings.TrimSpace(sc.LoadBalancer.Listener.Certificate.Ref) == "" {
		return nil, validate.Configuration("loadBalancer.listener.certificate.ref", "certificate reference is required for the HTTPS listener")
	}

	e := &Edge{}
	var err error
	if e.LoadBalancer, err = g.Add("edge/alb", "AWS::ElasticLoadBalancingV2::LoadBalancer", resource.Properties{
		"Name":           sc.Name + "-alb",
		"Scheme":         "internet-facing",
		"Type":           "application",
		"IpAddressType":  "ipv4",
		"Subnets":        subnetRefs(network.PublicSubnets()),
		"SecurityGroups": []any{sec.GroupID(RoleALB)},
	}); err != nil {
		return nil, err
	}
	// The load balancer is only reachable once the public routes exist.
	e.LoadBalancer.DependOn(network.PublicRoutes()...)

	if e.HTTPListener, err = g.Add("edge/alb/http-listener", "AWS::ElasticLoadBalancingV2::Listener", resource.Properties{
		"LoadBalancerArn": e.LoadBalancer.Ref(),
		"Port":            80,
		"Protocol":        "HTTP",
		"DefaultActions": []any{map[string]any{
			"Type": "redirect",
			"RedirectConfig": map[string]any{
				"Protocol":   "HTTPS",
				"Port":       "443",
				"StatusCode": "HTTP_301",
			},
		}},
	}); err != nil {
		return nil, err
	}

	if e.TargetGroup, err = g.Add("edge/target-group", "AWS::ElasticLoadBalancingV2::TargetGroup", resource.Properties{
		"Name":                       sc.Name + "-tg",
		"Port":                       compute.ContainerPort,
		"Protocol":                   "HTTP",
		"TargetType":                 "ip",
		"VpcId":                      network.VPC.Ref(),
		"HealthCheckPath":            HealthCheckPath,
		"HealthCheckIntervalSeconds": HealthCheckInterval,
		"Matcher":                    map[string]any{"HttpCode": HealthyHTTPCodes},
	}); err != nil {
		return nil, err
	}

	if e.HTTPSListener, err = g.Add("edge/alb/https-listener", "AWS::ElasticLoadBalancingV2::Listener", resource.Properties{
		"LoadBalancerArn": e.LoadBalancer.Ref(),
		"Port":            443,
		"Protocol":        "HTTPS",
		"Certificates":    []any{map[string]any{"CertificateArn": CertificateARN(sc)}},
		"DefaultActions": []any{map[string]any{
			"Type":           "forward",
			"TargetGroupArn": e.TargetGroup.Ref(),
		}},
	}); err != nil {
		return nil, err
	}

	compute.Service.Properties["LoadBalancers"] = []any{map[string]any{
		"ContainerName":  compute.ContainerName,
		"ContainerPort":  compute.ContainerPort,
		"TargetGroupArn": e.TargetGroup.Ref(),
	}}
	// Registration fails until a listener forwards to the target group.
	compute.Service.DependOn(e.HTTPSListener)

	return e, nil
}
