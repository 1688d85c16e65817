// Package resource holds the declarative resource graph produced by the stack
// builders: resources keyed by logical id, the intrinsic references that wire
// them together, and renderers for the formats an external apply engine or a
// reviewer consumes (CloudFormation JSON/YAML, HCL).
//
// The graph is a planning artifact. Nothing here talks to a cloud API.
// Dependencies are either implicit, collected from Ref/GetAtt/Sub values found
// in resource properties, or explicit through DependsOn for ordering-only
// constraints. Order and Waves produce the same result for the same graph on
// every call.
package resource
