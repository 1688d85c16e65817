package stack

import (
	"fmt"
	"sort"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/resource"
)

// Role names a security group.
type Role string

const (
	RoleALB      Role = "alb"
	RoleService  Role = "service"
	RoleDB       Role = "db"
	RoleBastion  Role = "bastion"
	RoleEndpoint Role = "endpoint"
)

// Roles lists every role in a fixed order.
var Roles = []Role{RoleALB, RoleService, RoleDB, RoleBastion, RoleEndpoint}

// PortSpec is a fixed port number or one of the symbolic ports below.
type PortSpec int

const (
	// ServicePort resolves to the container port.
	ServicePort PortSpec = -1
	// DatabasePort resolves to the database port read from the parameter store.
	DatabasePort PortSpec = -2
)

// Ports carries the values of the symbolic ports.
type Ports struct {
	Service  int
	Database int
}

func (p PortSpec) resolve(ports Ports) int {
	switch p {
	case ServicePort:
		return ports.Service
	case DatabasePort:
		return ports.Database
	default:
		return int(p)
	}
}

// Adjacency allows traffic into To from either a source role or a CIDR.
type Adjacency struct {
	From        Role
	FromCIDR    string
	To          Role
	Port        PortSpec
	Description string
}

// AdjacencyTable is the complete set of allowed flows between roles. Adding
// a role or a flow only requires an entry here.
var AdjacencyTable = []Adjacency{
	{From: RoleALB, To: RoleService, Port: ServicePort, Description: "Allow alb access"},
	{From: RoleService, To: RoleDB, Port: DatabasePort, Description: "Allow db access from api"},
	{From: RoleBastion, To: RoleDB, Port: DatabasePort, Description: "Allow db access from bastion"},
	{FromCIDR: AnyIPv4, To: RoleALB, Port: 80, Description: "Allow http from anywhere"},
	{FromCIDR: AnyIPv4, To: RoleALB, Port: 443, Description: "Allow https from anywhere"},
	{FromCIDR: AnyIPv4, To: RoleBastion, Port: 22, Description: "Allow ssh from anywhere"},
	{From: RoleService, To: RoleEndpoint, Port: 443, Description: "Allow platform API access from api"},
}

// Rule is one resolved allow rule. Source is a role name or a CIDR.
type Rule struct {
	Source      string
	SourceRole  bool
	To          Role
	Protocol    string
	Port        int
	Description string
}

func (r Rule) key() string {
	return fmt.Sprintf("%s|%s|%s|%d", r.To, r.Source, r.Protocol, r.Port)
}

// Security is the output of the security graph builder.
type Security struct {
	Groups map[Role]*resource.Resource
	Rules  []Rule
}

// Group returns the security group of an active role.
func (s *Security) Group(role Role) (*resource.Resource, bool) {
	g, ok := s.Groups[role]
	return g, ok
}

// GroupID returns the GroupId attribute of a role's security group.
func (s *Security) GroupID(role Role) resource.GetAtt {
	return s.Groups[role].GetAtt("GroupId")
}

// ActiveRoles derives the roles present in a stage from its features.
func ActiveRoles(sc config.StageContext) map[Role]bool {
	return map[Role]bool{
		RoleService:  true,
		RoleEndpoint: true,
		RoleALB:      sc.Has(config.FeatureEdge),
		RoleDB:       sc.Has(config.FeatureData),
		RoleBastion:  sc.Has(config.FeatureBastion),
	}
}

// ResolveRules applies table to the active roles. Entries touching an
// inactive role are skipped. The result is deduplicated and sorted, so the
// order of table entries does not matter.
func ResolveRules(table []Adjacency, active map[Role]bool, ports Ports) []Rule {
	seen := make(map[string]int)
	var rules []Rule
	for _, a := range table {
		if !active[a.To] {
			continue
		}
		r := Rule{To: a.To, Protocol: "tcp", Port: a.Port.resolve(ports), Description: a.Description}
		if a.From != "" {
			if !active[a.From] {
				continue
			}
			r.Source = string(a.From)
			r.SourceRole = true
		} else {
			r.Source = a.FromCIDR
		}
		if i, dup := seen[r.key()]; dup {
			if r.Description < rules[i].Description {
				rules[i].Description = r.Description
			}
			continue
		}
		seen[r.key()] = len(rules)
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].key() < rules[j].key() })
	return rules
}

// BuildSecurity declares one security group per active role and the allow
// rules of table between them. CIDR rules are inlined in the group; rules
// between groups are separate ingress resources so that groups never
// reference each other directly.
func BuildSecurity(g *resource.Graph, sc config.StageContext, network *Network, table []Adjacency, ports Ports) (*Security, error) {
	active := ActiveRoles(sc)
	rules := ResolveRules(table, active, ports)

	inline := make(map[Role][]any)
	for _, r := range rules {
		if r.SourceRole {
			continue
		}
		inline[r.To] = append(inline[r.To], ingress(r))
	}

	sec := &Security{Groups: make(map[Role]*resource.Resource), Rules: rules}
	for _, role := range Roles {
		if !active[role] {
			continue
		}
		name := fmt.Sprintf("%s-%s-sg", sc.Name, role)
		props := resource.Properties{
			"GroupName":        name,
			"GroupDescription": fmt.Sprintf("security group for %s", role),
			"VpcId":            network.VPC.Ref(),
			"SecurityGroupEgress": []any{map[string]any{
				"CidrIp":      AnyIPv4,
				"IpProtocol":  "-1",
				"Description": "Allow all outbound traffic by default",
			}},
			"Tags": nameTags(name),
		}
		if len(inline[role]) > 0 {
			props["SecurityGroupIngress"] = inline[role]
		}
		group, err := g.Add("security/"+string(role)+"-sg", "AWS::EC2::SecurityGroup", props)
		if err != nil {
			return nil, err
		}
		sec.Groups[role] = group
	}

	for _, r := range rules {
		if !r.SourceRole {
			continue
		}
		path := fmt.Sprintf("security/%s-sg/from-%s-%d", r.To, r.Source, r.Port)
		if _, err := g.Add(path, "AWS::EC2::SecurityGroupIngress", resource.Properties{
			"GroupId":               sec.GroupID(r.To),
			"SourceSecurityGroupId": sec.GroupID(Role(r.Source)),
			"IpProtocol":            r.Protocol,
			"FromPort":              r.Port,
			"ToPort":                r.Port,
			"Description":           r.Description,
		}); err != nil {
			return nil, err
		}
	}

	return sec, nil
}

func ingress(r Rule) map[string]any {
	return map[string]any{
		"CidrIp":      r.Source,
		"IpProtocol":  r.Protocol,
		"FromPort":    r.Port,
		"ToPort":      r.Port,
		"Description": r.Description,
	}
}
