// Package stack assembles the resource graph of one API stage: network,
// security groups, private endpoints, compute, and the optional edge, data,
// DNS and bastion parts selected by the stage features.
package stack

import (
	"context"
	"fmt"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/logger"
	"github.com/davoodharun/apistack/internal/param"
	"github.com/davoodharun/apistack/internal/resource"
	"github.com/davoodharun/apistack/internal/revision"
)

// Inputs are the external values a build consumes besides the stage context.
type Inputs struct {
	// Revision pins the container image; it must be a commit hash.
	Revision string
	// Params supplies database settings. Required when the data feature is on.
	Params param.Store
	// Adjacency overrides AdjacencyTable when set.
	Adjacency []Adjacency
}

// Stack is a built stage. Optional parts are nil when their feature is off.
type Stack struct {
	Context   config.StageContext
	Revision  string
	Graph     *resource.Graph
	Network   *Network
	Security  *Security
	Endpoints Endpoints
	Data      *Data
	Compute   *Compute
	Edge      *Edge
	DNS       *resource.Resource
	Bastion   *Bastion
}

type step struct {
	name string
	run  func() error
}

// Synthesize resolves env from file and builds its stack.
func Synthesize(ctx context.Context, env string, file *config.File, lookup config.Lookup, in Inputs) (*Stack, error) {
	sc, err := config.Resolve(env, file, lookup)
	if err != nil {
		return nil, err
	}
	return Build(ctx, sc, in)
}

// Build produces the resource graph of sc. Configuration and provisioning
// errors abort the build before any resource is described; no partial graph
// is returned.
func Build(ctx context.Context, sc config.StageContext, in Inputs) (*Stack, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	rev, err := revision.Check(in.Revision)
	if err != nil {
		return nil, err
	}
	table := in.Adjacency
	if table == nil {
		table = AdjacencyTable
	}

	s := &Stack{
		Context:  sc,
		Revision: rev,
		Graph:    resource.New(fmt.Sprintf("%s API stack (%s, features: %s)", sc.Name, sc.Env, sc.Features)),
	}

	ports := Ports{Service: sc.Service.Port}
	var dataParams DataParams
	if sc.Has(config.FeatureData) {
		if dataParams, err = ResolveDataParams(ctx, sc, in.Params); err != nil {
			return nil, err
		}
		ports.Database = dataParams.Port
	}

	steps := []step{
		{"network", func() (err error) {
			s.Network, err = BuildNetwork(ctx, s.Graph, sc)
			return err
		}},
		{"security groups", func() (err error) {
			s.Security, err = BuildSecurity(s.Graph, sc, s.Network, table, ports)
			return err
		}},
		{"endpoints", func() (err error) {
			s.Endpoints, err = BuildEndpoints(s.Graph, sc, s.Network, s.Security)
			return err
		}},
	}
	if sc.Has(config.FeatureBastion) {
		steps = append(steps, step{"bastion", func() (err error) {
			s.Bastion, err = BuildBastion(s.Graph, sc, s.Network, s.Security)
			return err
		}})
	}
	if sc.Has(config.FeatureData) {
		steps = append(steps, step{"database", func() (err error) {
			s.Data, err = BuildData(s.Graph, sc, s.Network, s.Security, dataParams)
			return err
		}})
	}
	steps = append(steps, step{"compute", func() (err error) {
		s.Compute, err = BuildCompute(s.Graph, sc, rev, s.Network, s.Security, s.Data)
		return err
	}})
	if sc.Has(config.FeatureEdge) {
		steps = append(steps, step{"load balancer", func() (err error) {
			s.Edge, err = BuildEdge(s.Graph, sc, s.Network, s.Security, s.Compute)
			return err
		}})
	}
	if sc.Has(config.FeatureDNS) {
		steps = append(steps, step{"dns", func() (err error) {
			s.DNS, err = BuildDNS(s.Graph, sc, s.Edge)
			return err
		}})
	}
	steps = append(steps, step{"outputs", func() error {
		s.addOutputs()
		return s.Graph.Validate()
	}})

	logger.StartProgress(fmt.Sprintf("Building %s", sc.Name), len(steps))
	for _, st := range steps {
		logger.Debug("Building %s", st.name)
		if err := st.run(); err != nil {
			logger.FinishProgress()
			logger.Error("Failed to build %s: %v", st.name, err)
			return nil, fmt.Errorf("failed to build %s: %w", st.name, err)
		}
		logger.UpdateProgress()
	}
	logger.FinishProgress()
	logger.Success("Built %d resources for %s", s.Graph.Len(), sc.Name)

	return s, nil
}

func (s *Stack) addOutputs() {
	g := s.Graph
	g.AddOutput("VpcId", s.Network.VPC.Ref(), "Network id")
	g.AddOutput("ClusterName", s.Compute.Cluster.Ref(), "ECS cluster name")
	g.AddOutput("ServiceName", s.Compute.Service.GetAtt("Name"), "ECS service name")
	if s.Edge != nil {
		g.AddOutput("LoadBalancerDNSName", s.Edge.LoadBalancer.GetAtt("DNSName"), "Public load balancer endpoint")
	}
	if s.Data != nil {
		g.AddOutput("DatabaseEndpoint", s.Data.Instance.GetAtt("Endpoint.Address"), "Database host")
	}
	if s.DNS != nil {
		g.AddOutput("RecordName", s.DNS.Ref(), "Alias record")
	}
}
