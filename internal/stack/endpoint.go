package stack

import (
	"fmt"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/resource"
)

// EndpointKind is the connectivity mechanism of a platform endpoint.
type EndpointKind string

const (
	// InterfaceEndpoint places network interfaces in the private subnets.
	InterfaceEndpoint EndpointKind = "Interface"
	// GatewayEndpoint adds routes to the private route tables. It has no
	// hourly charge and takes no security group.
	GatewayEndpoint EndpointKind = "Gateway"
)

// PlatformEndpoint is one managed API the service reaches privately.
type PlatformEndpoint struct {
	Category string
	Service  string
	Kind     EndpointKind
}

// PlatformEndpoints are the APIs the service needs without public egress.
var PlatformEndpoints = []PlatformEndpoint{
	{Category: "ecr-dkr", Service: "ecr.dkr", Kind: InterfaceEndpoint},
	{Category: "ecr-api", Service: "ecr.api", Kind: InterfaceEndpoint},
	{Category: "ssm", Service: "ssm", Kind: InterfaceEndpoint},
	{Category: "secret-mng", Service: "secretsmanager", Kind: InterfaceEndpoint},
	{Category: "logs", Service: "logs", Kind: InterfaceEndpoint},
	{Category: "s3", Service: "s3", Kind: GatewayEndpoint},
}

// Endpoints is the output of the endpoint builder, keyed by category.
type Endpoints map[string]*resource.Resource

// BuildEndpoints attaches every platform endpoint to the private subnets.
func BuildEndpoints(g *resource.Graph, sc config.StageContext, network *Network, sec *Security) (Endpoints, error) {
	private := network.PrivateSubnets()
	endpoints := make(Endpoints, len(PlatformEndpoints))

	for _, e := range PlatformEndpoints {
		props := resource.Properties{
			"ServiceName":     fmt.Sprintf("com.amazonaws.%s.%s", sc.Region, e.Service),
			"VpcEndpointType": string(e.Kind),
			"VpcId":           network.VPC.Ref(),
		}
		switch e.Kind {
		case InterfaceEndpoint:
			props["SubnetIds"] = subnetRefs(private)
			props["SecurityGroupIds"] = []any{sec.GroupID(RoleEndpoint)}
			props["PrivateDnsEnabled"] = true
		case GatewayEndpoint:
			props["RouteTableIds"] = routeTableRefs(private)
		default:
			return nil, fmt.Errorf("unknown endpoint kind %q for %s", e.Kind, e.Service)
		}

		r, err := g.Add("endpoints/vpce-"+e.Category, "AWS::EC2::VPCEndpoint", props)
		if err != nil {
			return nil, err
		}
		endpoints[e.Category] = r
	}
	return endpoints, nil
}
