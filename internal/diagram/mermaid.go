package diagram

import (
	"fmt"
	"strings"

	"github.com/davoodharun/apistack/internal/resource"
)

// AWS resource type to Mermaid icon mapping
var awsIcons = map[string]string{
	"AWS::EC2::VPC":                             "🌐",
	"AWS::EC2::Subnet":                          "🧱",
	"AWS::EC2::InternetGateway":                 "🚪",
	"AWS::EC2::SecurityGroup":                   "🛡️",
	"AWS::EC2::VPCEndpoint":                     "🔌",
	"AWS::EC2::Instance":                        "🖥️",
	"AWS::EC2::KeyPair":                         "🔑",
	"AWS::ECS::Cluster":                         "📦",
	"AWS::ECS::Service":                         "⚙️",
	"AWS::ECS::TaskDefinition":                  "📋",
	"AWS::IAM::Role":                            "🪪",
	"AWS::ElasticLoadBalancingV2::LoadBalancer": "⚖️",
	"AWS::ElasticLoadBalancingV2::Listener":     "👂",
	"AWS::ElasticLoadBalancingV2::TargetGroup":  "🎯",
	"AWS::RDS::DBInstance":                      "🗄️",
	"AWS::Route53::RecordSet":                   "📡",
}

// generateMermaidDiagram draws one subgraph per builder and an arrow for
// every dependency.
func generateMermaidDiagram(g *resource.Graph) (string, error) {
	gs, err := groups(g)
	if err != nil {
		return "", err
	}

	var diagram strings.Builder
	diagram.WriteString("```mermaid\n")
	diagram.WriteString("graph TD\n\n")

	for _, grp := range gs {
		diagram.WriteString(fmt.Sprintf("  subgraph %s [%s]\n", grp.name, grp.name))
		for _, r := range grp.resources {
			diagram.WriteString(fmt.Sprintf("    %s[\"%s %s\"]:::aws\n", r.LogicalID, getMermaidIcon(r.Type), label(r)))
		}
		diagram.WriteString("  end\n\n")
	}

	for _, e := range edges(g) {
		diagram.WriteString(fmt.Sprintf("  %s --> %s\n", e.from, e.to))
	}

	diagram.WriteString("\nclassDef aws fill:#FF9900,stroke:#232F3E,color:#232F3E\n")
	diagram.WriteString("```\n")

	diagram.WriteString("\n## Resource Summary\n\n")
	for _, grp := range gs {
		diagram.WriteString(fmt.Sprintf("- `%s`: %d resources\n", grp.name, len(grp.resources)))
	}

	return diagram.String(), nil
}

// getMermaidIcon returns the appropriate Mermaid icon for an AWS resource type
func getMermaidIcon(resourceType string) string {
	if icon, ok := awsIcons[resourceType]; ok {
		return icon
	}
	return "📦"
}
