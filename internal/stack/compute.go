package stack

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/param"
	"github.com/davoodharun/apistack/internal/resource"
	"github.com/davoodharun/apistack/internal/validate"
)

const executionPolicyARN = "arn:aws:iam::aws:policy/service-role/AmazonECSTaskExecutionRolePolicy"

var roleARN = regexp.MustCompile(`^arn:aws[a-z-]*:iam::[0-9]{12}:role/[\w+=,.@/-]+$`)

// Compute is the output of the compute builder.
type Compute struct {
	Cluster        *resource.Resource
	ExecutionRole  *resource.Resource
	ExecutionARN   any
	TaskDefinition *resource.Resource
	Service        *resource.Resource
	ContainerName  string
	ContainerPort  int
	Image          any
}

// ImageURI is the registry location of the service image pinned to revision.
func ImageURI(sc config.StageContext, revision string) resource.Sub {
	return resource.Sub{Template: fmt.Sprintf("${AWS::AccountId}.dkr.ecr.%s.amazonaws.com/%s:%s", sc.Region, sc.Service.Repository, revision)}
}

// parameterARN is the ARN of a parameter, resolved at deploy time.
func parameterARN(ref param.SecretRef) resource.Sub {
	return resource.Sub{Template: "arn:aws:ssm:${AWS::Region}:${AWS::AccountId}:parameter/" + ref.ParameterName()}
}

// BuildCompute declares the execution identity, the cluster, the task
// definition and the service. data is nil when the database is disabled.
func BuildCompute(g *resource.Graph, sc config.StageContext, revision string, network *Network, sec *Security, data *Data) (*Compute, error) {
	c := &Compute{ContainerName: sc.Name, ContainerPort: sc.Service.Port, Image: ImageURI(sc, revision)}

	var err error
	if err = c.resolveExecutionRole(g, sc); err != nil {
		return nil, err
	}

	env, secrets, err := containerEnvironment(sc, data)
	if err != nil {
		return nil, err
	}

	if c.Cluster, err = g.Add("compute/cluster", "AWS::ECS::Cluster", resource.Properties{
		"ClusterName": sc.Name + "-cluster",
	}); err != nil {
		return nil, err
	}

	container := map[string]any{
		"Name":      c.ContainerName,
		"Image":     c.Image,
		"Essential": true,
		"PortMappings": []any{map[string]any{
			"Name":          "http-port-mapping",
			"ContainerPort": c.ContainerPort,
			"HostPort":      c.ContainerPort,
			"Protocol":      "tcp",
			"AppProtocol":   "http",
		}},
		"LogConfiguration": map[string]any{
			"LogDriver": "awslogs",
			"Options": map[string]any{
				"awslogs-group":         sc.Logging.Group,
				"awslogs-region":        sc.Region,
				"awslogs-stream-prefix": sc.Logging.StreamPrefix,
			},
		},
	}
	if len(sc.Service.Command) > 0 {
		command := make([]any, 0, len(sc.Service.Command))
		for _, arg := range sc.Service.Command {
			command = append(command, arg)
		}
		container["Command"] = command
	}
	if len(env) > 0 {
		container["Environment"] = env
	}
	if len(secrets) > 0 {
		container["Secrets"] = secrets
	}

	if c.TaskDefinition, err = g.Add("compute/task", "AWS::ECS::TaskDefinition", resource.Properties{
		"Family":                  sc.Name + "-task",
		"Cpu":                     strconv.Itoa(sc.Service.CPU),
		"Memory":                  strconv.Itoa(sc.Service.Memory),
		"NetworkMode":             "awsvpc",
		"RequiresCompatibilities": []any{"FARGATE"},
		"ExecutionRoleArn":        c.ExecutionARN,
		"ContainerDefinitions":    []any{container},
	}); err != nil {
		return nil, err
	}

	if c.Service, err = g.Add("compute/service", "AWS::ECS::Service", resource.Properties{
		"ServiceName":    sc.Name + "-service",
		"Cluster":        c.Cluster.Ref(),
		"TaskDefinition": c.TaskDefinition.Ref(),
		"LaunchType":     "FARGATE",
		"DesiredCount":   sc.Service.DesiredCount,
		"NetworkConfiguration": map[string]any{
			"AwsvpcConfiguration": map[string]any{
				"AssignPublicIp": "DISABLED",
				"Subnets":        subnetRefs(network.PrivateSubnets()),
				"SecurityGroups": []any{sec.GroupID(RoleService)},
			},
		},
	}); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Compute) resolveExecutionRole(g *resource.Graph, sc config.StageContext) error {
	switch sc.ExecutionRole.Mode {
	case config.RoleModeExisting:
		arn := strings.TrimSpace(sc.ExecutionRole.ARN)
		if arn == "" {
			return validate.Provision("execution role", "mode existing requires an ARN", nil)
		}
		if !roleARN.MatchString(arn) {
			return validate.Provision("execution role", fmt.Sprintf("%q is not an IAM role ARN", arn), nil)
		}
		c.ExecutionARN = arn
		return nil
	case config.RoleModeCreate, "":
	default:
		return validate.Provision("execution role", fmt.Sprintf("unknown mode %q", sc.ExecutionRole.Mode), nil)
	}

	role, err := g.Add("compute/execution-role", "AWS::IAM::Role", resource.Properties{
		"RoleName":    sc.Name + "-ecsTaskExecutionRole",
		"Description": "ECS execution role",
		"AssumeRolePolicyDocument": map[string]any{
			"Version": "2012-10-17",
			"Statement": []any{map[string]any{
				"Effect":    "Allow",
				"Principal": map[string]any{"Service": "ecs-tasks.amazonaws.com"},
				"Action":    "sts:AssumeRole",
			}},
		},
		"ManagedPolicyArns": []any{executionPolicyARN},
		"Policies": []any{map[string]any{
			"PolicyName": sc.Name + "-ecsTaskExecutionPolicy",
			"PolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{map[string]any{
					"Effect": "Allow",
					"Action": []any{
						"ssm:GetParameters",
						"secretsmanager:GetSecretValue",
						"kms:Decrypt",
					},
					"Resource": []any{
						resource.Sub{Template: "arn:aws:ssm:${AWS::Region}:${AWS::AccountId}:parameter/*"},
						resource.Sub{Template: "arn:aws:secretsmanager:${AWS::Region}:${AWS::AccountId}:secret:*"},
						resource.Sub{Template: "arn:aws:kms:${AWS::Region}:${AWS::AccountId}:key/*"},
					},
				}},
			},
		}},
	})
	if err != nil {
		return err
	}
	c.ExecutionRole = role
	c.ExecutionARN = role.GetAtt("Arn")
	return nil
}

// containerEnvironment merges the database variables with the configured
// ones. Plain values and secret references are kept apart: a name may appear
// in only one of them.
func containerEnvironment(sc config.StageContext, data *Data) ([]any, []any, error) {
	plain := make(map[string]any)
	secret := make(map[string]param.SecretRef)

	if data != nil {
		plain["MYSQL_HOST"] = data.Instance.GetAtt("Endpoint.Address")
		plain["MYSQL_PORT"] = strconv.Itoa(data.Params.Port)
		plain["MYSQL_USER"] = data.Params.User
		plain["MYSQL_DATABASE"] = data.Params.Database
		secret["MYSQL_PASSWORD"] = data.Params.Password
	}

	var issues validate.Issues
	for _, name := range sortedKeys(sc.Service.Environment) {
		if _, taken := plain[name]; taken {
			issues.Add("service.environment", "%s is managed by the data builder", name)
			continue
		}
		if _, taken := secret[name]; taken {
			issues.Add("service.environment", "%s is a secret and cannot be set as a plain variable", name)
			continue
		}
		plain[name] = sc.Service.Environment[name]
	}
	for _, name := range sortedKeys(sc.Service.Secrets) {
		if _, taken := plain[name]; taken {
			issues.Add("service.secrets", "%s is already a plain variable", name)
			continue
		}
		if _, taken := secret[name]; taken {
			issues.Add("service.secrets", "%s is managed by the data builder", name)
			continue
		}
		path := sc.Service.Secrets[name]
		if !strings.HasPrefix(path, "/") {
			path = sc.ParameterPath(path)
		}
		secret[name] = param.Secret(path)
	}
	if err := issues.OrNil(); err != nil {
		return nil, nil, err
	}

	env := make([]any, 0, len(plain))
	for _, name := range sortedAnyKeys(plain) {
		env = append(env, map[string]any{"Name": name, "Value": plain[name]})
	}
	secrets := make([]any, 0, len(secret))
	names := make([]string, 0, len(secret))
	for name := range secret {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		secrets = append(secrets, map[string]any{"Name": name, "ValueFrom": parameterARN(secret[name])})
	}
	return env, secrets, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
