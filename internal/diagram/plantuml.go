package diagram

import (
	"fmt"
	"strings"

	"github.com/davoodharun/apistack/internal/resource"
)

// AWS resource type to PlantUML sprite mapping
var awsSprites = map[string]string{
	"AWS::EC2::VPC":                             "VPCVirtualprivatecloudVPC",
	"AWS::EC2::InternetGateway":                 "VPCInternetGateway",
	"AWS::EC2::VPCEndpoint":                     "VPCEndpoints",
	"AWS::EC2::Instance":                        "EC2Instance",
	"AWS::ECS::Cluster":                         "ElasticContainerService",
	"AWS::ECS::Service":                         "ElasticContainerServiceService",
	"AWS::ECS::TaskDefinition":                  "ElasticContainerServiceTask",
	"AWS::ElasticLoadBalancingV2::LoadBalancer": "ElasticLoadBalancingApplicationLoadBalancer",
	"AWS::RDS::DBInstance":                      "RDS",
	"AWS::Route53::RecordSet":                   "Route53",
	"AWS::IAM::Role":                            "IAMIdentityAccessManagementRole",
}

// generatePlantUMLDiagram draws one rectangle per builder with the AWS
// sprites where one exists.
func generatePlantUMLDiagram(g *resource.Graph) (string, error) {
	gs, err := groups(g)
	if err != nil {
		return "", err
	}

	var diagram strings.Builder
	diagram.WriteString("@startuml\n")

	diagram.WriteString("!define AWSPuml https://raw.githubusercontent.com/awslabs/aws-icons-for-plantuml/v18.0/dist\n")
	diagram.WriteString("!include AWSPuml/AWSCommon.puml\n")
	diagram.WriteString("!include AWSPuml/AWSSimplified.puml\n")
	diagram.WriteString("!include AWSPuml/Compute/all.puml\n")
	diagram.WriteString("!include AWSPuml/Containers/all.puml\n")
	diagram.WriteString("!include AWSPuml/Database/all.puml\n")
	diagram.WriteString("!include AWSPuml/NetworkingContentDelivery/all.puml\n")
	diagram.WriteString("!include AWSPuml/SecurityIdentityCompliance/all.puml\n\n")

	diagram.WriteString("' Styling\n")
	diagram.WriteString("skinparam rectangle {\n")
	diagram.WriteString("  BackgroundColor<<builder>> White\n")
	diagram.WriteString("  BorderColor<<builder>> #232F3E\n")
	diagram.WriteString("}\n\n")

	for _, grp := range gs {
		diagram.WriteString(fmt.Sprintf("rectangle \"%s\" <<builder>> {\n", grp.name))
		for _, r := range grp.resources {
			if sprite, ok := awsSprites[r.Type]; ok {
				diagram.WriteString(fmt.Sprintf("  %s(%s, \"%s\", \"%s\")\n", sprite, r.LogicalID, label(r), r.Type))
			} else {
				diagram.WriteString(fmt.Sprintf("  rectangle \"%s\" as %s\n", label(r), r.LogicalID))
			}
		}
		diagram.WriteString("}\n\n")
	}

	for _, e := range edges(g) {
		diagram.WriteString(fmt.Sprintf("%s --> %s\n", e.from, e.to))
	}

	diagram.WriteString("@enduml\n")
	return diagram.String(), nil
}
