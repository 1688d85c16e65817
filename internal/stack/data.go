package stack

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/param"
	"github.com/davoodharun/apistack/internal/resource"
	"github.com/davoodharun/apistack/internal/validate"
)

// Parameter keys under /{env}/{service}/.
const (
	KeyDBPort     = "db/port"
	KeyDBUser     = "db/user"
	KeyDBDatabase = "db/database"
	KeyDBPassword = "db/pass"
)

// DataParams are the database settings read from the parameter store. The
// password stays a reference.
type DataParams struct {
	Port     int
	User     string
	Database string
	Password param.SecretRef
}

// Data is the output of the data builder.
type Data struct {
	SubnetGroup *resource.Resource
	Instance    *resource.Resource
	Params      DataParams
}

// ResolveDataParams reads port, user and database name at build time.
func ResolveDataParams(ctx context.Context, sc config.StageContext, store param.Store) (DataParams, error) {
	if store == nil {
		return DataParams{}, validate.Provision("database credentials", "no parameter store configured", nil)
	}

	read := func(key string) (string, error) {
		path := sc.ParameterPath(key)
		v, err := store.Value(ctx, path)
		if err != nil {
			msg := "cannot read " + path
			if errors.Is(err, param.ErrNotFound) {
				msg = path + " is not set"
			}
			return "", validate.Provision("database credentials", msg, err)
		}
		if v == "" {
			return "", validate.Provision("database credentials", path+" is empty", nil)
		}
		return v, nil
	}

	rawPort, err := read(KeyDBPort)
	if err != nil {
		return DataParams{}, err
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil || port <= 0 || port > 65535 {
		return DataParams{}, validate.Provision("database credentials", fmt.Sprintf("%s is not a valid port: %q", sc.ParameterPath(KeyDBPort), rawPort), nil)
	}
	user, err := read(KeyDBUser)
	if err != nil {
		return DataParams{}, err
	}
	database, err := read(KeyDBDatabase)
	if err != nil {
		return DataParams{}, err
	}

	return DataParams{
		Port:     port,
		User:     user,
		Database: database,
		Password: param.Secret(sc.ParameterPath(KeyDBPassword)),
	}, nil
}

var removalPolicies = map[string]string{
	config.RemovalDestroy:  resource.PolicyDelete,
	config.RemovalSnapshot: resource.PolicySnapshot,
	config.RemovalRetain:   resource.PolicyRetain,
}

// BuildData declares a single-zone database instance in the private subnets.
func BuildData(g *resource.Graph, sc config.StageContext, network *Network, sec *Security, params DataParams) (*Data, error) {
	if _, ok := network.PrivateSubnet(sc.Data.AvailabilityZone); !ok {
		return nil, validate.Configuration("data.availabilityZone", "zone %s has no private subnet", sc.Data.AvailabilityZone)
	}
	policy, ok := removalPolicies[sc.Data.RemovalPolicy]
	if !ok {
		return nil, validate.Configuration("data.removalPolicy", "unknown removal policy %q", sc.Data.RemovalPolicy)
	}

	d := &Data{Params: params}
	var err error
	if d.SubnetGroup, err = g.Add("data/subnet-group", "AWS::RDS::DBSubnetGroup", resource.Properties{
		"DBSubnetGroupDescription": fmt.Sprintf("Subnet group for %s-db database", sc.Name),
		"SubnetIds":                subnetRefs(network.PrivateSubnets()),
	}); err != nil {
		return nil, err
	}
	// Subnet groups cannot be snapshotted.
	if policy == resource.PolicySnapshot {
		d.SubnetGroup.SetRemovalPolicy(resource.PolicyDelete)
	} else {
		d.SubnetGroup.SetRemovalPolicy(policy)
	}

	if d.Instance, err = g.Add("data/db", "AWS::RDS::DBInstance", resource.Properties{
		"DBInstanceIdentifier": sc.Name + "-db",
		"DBName":               params.Database,
		"Engine":               sc.Data.Engine,
		"DBInstanceClass":      sc.Data.InstanceClass,
		"AllocatedStorage":     strconv.Itoa(sc.Data.AllocatedStorage),
		"StorageType":          "gp2",
		"StorageEncrypted":     true,
		"AvailabilityZone":     sc.Data.AvailabilityZone,
		"MultiAZ":              false,
		"PubliclyAccessible":   false,
		"CopyTagsToSnapshot":   true,
		"DBSubnetGroupName":    d.SubnetGroup.Ref(),
		"VPCSecurityGroups":    []any{sec.GroupID(RoleDB)},
		"Port":                 strconv.Itoa(params.Port),
		"MasterUsername":       params.User,
		"MasterUserPassword":   params.Password.DynamicReference(),
	}); err != nil {
		return nil, err
	}
	d.Instance.SetRemovalPolicy(policy)

	return d, nil
}
