package stack

import (
	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/resource"
)

const (
	bastionInstanceType = "t3.micro"
	// bastionImage resolves the latest Amazon Linux 2 AMI at deploy time.
	bastionImage = "{{resolve:ssm:/aws/service/ami-amazon-linux-latest/amzn2-ami-hvm-x86_64-gp2}}"
)

// Bastion is the output of the bastion builder.
type Bastion struct {
	KeyPair  *resource.Resource
	Instance *resource.Resource
}

// BuildBastion declares a key pair and a small instance in the first public
// subnet.
func BuildBastion(g *resource.Graph, sc config.StageContext, network *Network, sec *Security) (*Bastion, error) {
	b := &Bastion{}
	subnet := network.PublicSubnets()[0]

	var err error
	if b.KeyPair, err = g.Add("bastion/key", "AWS::EC2::KeyPair", resource.Properties{
		"KeyName": sc.Name + "-bastion-key",
	}); err != nil {
		return nil, err
	}
	b.KeyPair.SetRemovalPolicy(resource.PolicyDelete)

	if b.Instance, err = g.Add("bastion/instance", "AWS::EC2::Instance", resource.Properties{
		"InstanceType":     bastionInstanceType,
		"ImageId":          bastionImage,
		"KeyName":          b.KeyPair.Ref(),
		"SubnetId":         subnet.Resource.Ref(),
		"SecurityGroupIds": []any{sec.GroupID(RoleBastion)},
		"Tags":             nameTags(sc.Name + "-bastion"),
	}); err != nil {
		return nil, err
	}
	b.Instance.DependOn(subnet.Route)

	return b, nil
}
