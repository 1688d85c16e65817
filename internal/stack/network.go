package stack

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/resource"
)

const (
	// VPCCIDR is the address space of every stage network.
	VPCCIDR = "10.0.0.0/16"
	// AnyIPv4 is the open internet peer.
	AnyIPv4 = "0.0.0.0/0"

	publicOctetBase  = 1
	privateOctetBase = 11
)

// Subnet is one public or private subnet and its routing.
type Subnet struct {
	Zone        string
	Name        string
	CIDR        string
	Public      bool
	Resource    *resource.Resource
	RouteTable  *resource.Resource
	Association *resource.Resource
	// Route is the default internet route; nil for private subnets.
	Route *resource.Resource
}

// Zone is the subnet pair of one availability zone.
type Zone struct {
	Name    string
	Index   int
	Public  *Subnet
	Private *Subnet
}

// Network is the output of the network builder.
type Network struct {
	VPC        *resource.Resource
	Gateway    *resource.Resource
	Attachment *resource.Resource
	Zones      []*Zone
}

// PublicSubnets returns the public subnets in zone order.
func (n *Network) PublicSubnets() []*Subnet {
	out := make([]*Subnet, 0, len(n.Zones))
	for _, z := range n.Zones {
		out = append(out, z.Public)
	}
	return out
}

// PrivateSubnets returns the private subnets in zone order.
func (n *Network) PrivateSubnets() []*Subnet {
	out := make([]*Subnet, 0, len(n.Zones))
	for _, z := range n.Zones {
		out = append(out, z.Private)
	}
	return out
}

// PrivateSubnet returns the private subnet of a zone.
func (n *Network) PrivateSubnet(zone string) (*Subnet, bool) {
	for _, z := range n.Zones {
		if z.Name == zone {
			return z.Private, true
		}
	}
	return nil, false
}

// PublicRoutes returns the default internet routes.
func (n *Network) PublicRoutes() []*resource.Resource {
	var out []*resource.Resource
	for _, s := range n.PublicSubnets() {
		out = append(out, s.Route)
	}
	return out
}

func subnetRefs(subnets []*Subnet) []any {
	refs := make([]any, 0, len(subnets))
	for _, s := range subnets {
		refs = append(refs, s.Resource.Ref())
	}
	return refs
}

func routeTableRefs(subnets []*Subnet) []any {
	refs := make([]any, 0, len(subnets))
	for _, s := range subnets {
		refs = append(refs, s.RouteTable.Ref())
	}
	return refs
}

// zonePlan is the pure naming and addressing of one zone.
type zonePlan struct {
	zone        string
	index       int
	suffix      string
	publicName  string
	publicCIDR  string
	privateName string
	privateCIDR string
}

// AZSuffix strips everything up to the last hyphen: ap-northeast-1a -> 1a.
func AZSuffix(az string) string {
	if i := strings.LastIndex(az, "-"); i >= 0 {
		return az[i+1:]
	}
	return az
}

// SubnetCIDR returns the /24 block for a zone index.
func SubnetCIDR(index int, public bool) (string, error) {
	if index < 0 || index >= config.MaxZones {
		return "", fmt.Errorf("zone index %d exceeds the subnet capacity of %d zones", index, config.MaxZones)
	}
	octet := privateOctetBase + index
	if public {
		octet = publicOctetBase + index
	}
	prefix, err := netip.ParsePrefix(fmt.Sprintf("10.0.%d.0/24", octet))
	if err != nil {
		return "", err
	}
	vpc := netip.MustParsePrefix(VPCCIDR)
	if !vpc.Contains(prefix.Addr()) {
		return "", fmt.Errorf("subnet %s is outside %s", prefix, vpc)
	}
	return prefix.String(), nil
}

func planZone(name string, index int, az string) (zonePlan, error) {
	suffix := AZSuffix(az)
	public, err := SubnetCIDR(index, true)
	if err != nil {
		return zonePlan{}, err
	}
	private, err := SubnetCIDR(index, false)
	if err != nil {
		return zonePlan{}, err
	}
	return zonePlan{
		zone:        az,
		index:       index,
		suffix:      suffix,
		publicName:  fmt.Sprintf("%s-app-public-subnet-%s", name, suffix),
		publicCIDR:  public,
		privateName: fmt.Sprintf("%s-app-private-subnet-%s", name, suffix),
		privateCIDR: private,
	}, nil
}

// planZones computes every zone plan concurrently. Zones share no data, so
// the result only depends on the zone list.
func planZones(ctx context.Context, name string, zones []string) ([]zonePlan, error) {
	plans := make([]zonePlan, len(zones))
	g, _ := errgroup.WithContext(ctx)
	for i, az := range zones {
		i, az := i, az
		g.Go(func() error {
			p, err := planZone(name, i, az)
			if err != nil {
				return err
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}

// BuildNetwork declares the VPC, the internet gateway and one public and one
// private subnet per zone. Only public subnets get a default route.
func BuildNetwork(ctx context.Context, g *resource.Graph, sc config.StageContext) (*Network, error) {
	plans, err := planZones(ctx, sc.Name, sc.AvailabilityZones)
	if err != nil {
		return nil, err
	}

	n := &Network{}
	if n.VPC, err = g.Add("network/vpc", "AWS::EC2::VPC", resource.Properties{
		"CidrBlock":          VPCCIDR,
		"EnableDnsHostnames": true,
		"EnableDnsSupport":   true,
		"InstanceTenancy":    "default",
		"Tags":               nameTags(sc.Name + "-vpc"),
	}); err != nil {
		return nil, err
	}
	if n.Gateway, err = g.Add("network/igw", "AWS::EC2::InternetGateway", resource.Properties{
		"Tags": nameTags(sc.Name + "-igw"),
	}); err != nil {
		return nil, err
	}
	if n.Attachment, err = g.Add("network/igw-attachment", "AWS::EC2::VPCGatewayAttachment", resource.Properties{
		"VpcId":             n.VPC.Ref(),
		"InternetGatewayId": n.Gateway.Ref(),
	}); err != nil {
		return nil, err
	}

	for _, p := range plans {
		zone := &Zone{Name: p.zone, Index: p.index}
		if zone.Public, err = n.addSubnet(g, p.zone, p.suffix, p.publicName, p.publicCIDR, true); err != nil {
			return nil, err
		}
		if zone.Private, err = n.addSubnet(g, p.zone, p.suffix, p.privateName, p.privateCIDR, false); err != nil {
			return nil, err
		}
		n.Zones = append(n.Zones, zone)
	}

	return n, nil
}

func (n *Network) addSubnet(g *resource.Graph, az, suffix, name, cidr string, public bool) (*Subnet, error) {
	kind := "private"
	if public {
		kind = "public"
	}
	base := fmt.Sprintf("network/%s-subnet-%s", kind, suffix)
	s := &Subnet{Zone: az, Name: name, CIDR: cidr, Public: public}

	var err error
	if s.Resource, err = g.Add(base, "AWS::EC2::Subnet", resource.Properties{
		"VpcId":               n.VPC.Ref(),
		"CidrBlock":           cidr,
		"AvailabilityZone":    az,
		"MapPublicIpOnLaunch": public,
		"Tags":                nameTags(name),
	}); err != nil {
		return nil, err
	}
	if s.RouteTable, err = g.Add(base+"/route-table", "AWS::EC2::RouteTable", resource.Properties{
		"VpcId": n.VPC.Ref(),
		"Tags":  nameTags(name),
	}); err != nil {
		return nil, err
	}
	if s.Association, err = g.Add(base+"/route-table-association", "AWS::EC2::SubnetRouteTableAssociation", resource.Properties{
		"RouteTableId": s.RouteTable.Ref(),
		"SubnetId":     s.Resource.Ref(),
	}); err != nil {
		return nil, err
	}

	if public {
		if s.Route, err = g.Add(base+"/default-route", "AWS::EC2::Route", resource.Properties{
			"RouteTableId":         s.RouteTable.Ref(),
			"DestinationCidrBlock": AnyIPv4,
			"GatewayId":            n.Gateway.Ref(),
		}); err != nil {
			return nil, err
		}
		s.Route.DependOn(n.Attachment)
	}
	return s, nil
}

func nameTags(name string) []any {
	return []any{map[string]any{"Key": "Name", "Value": name}}
}
