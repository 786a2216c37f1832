package ir

import "strings"

// ExecutionKind distinguishes steps whose body runs in-process from
// steps whose body is delegated to an external runtime over a
// Transport.
type ExecutionKind string

const (
	Internal  ExecutionKind = "INTERNAL"
	Delegated ExecutionKind = "DELEGATED"
)

// DeploymentRole records why a step exists in the expanded step order:
// a step declared directly by the pipeline author, or one of the
// synthetic roles inserted by the order expander.
type DeploymentRole string

const (
	RoleRegular            DeploymentRole = "REGULAR"
	RoleOrchestratorClient DeploymentRole = "ORCHESTRATOR_CLIENT"
	RolePluginClient       DeploymentRole = "PLUGIN_CLIENT"
	RoleSynthetic          DeploymentRole = "SYNTHETIC"
)

// Transport is the wire mechanism a DELEGATED step uses to reach its
// external implementation.
type Transport string

const (
	TransportGRPC     Transport = "GRPC"
	TransportREST     Transport = "REST"
	TransportLocal    Transport = "LOCAL"
	TransportFunction Transport = "FUNCTION"
)

func parseExecutionKind(raw string) (ExecutionKind, bool) {
	switch ExecutionKind(strings.ToUpper(strings.TrimSpace(raw))) {
	case Internal:
		return Internal, true
	case Delegated:
		return Delegated, true
	default:
		return "", false
	}
}

func parseTransport(raw string) (Transport, bool) {
	switch Transport(strings.ToUpper(strings.TrimSpace(raw))) {
	case TransportGRPC, TransportREST, TransportLocal, TransportFunction:
		return Transport(strings.ToUpper(strings.TrimSpace(raw))), true
	default:
		return "", false
	}
}
