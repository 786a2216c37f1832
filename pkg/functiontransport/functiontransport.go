// Package functiontransport implements the FUNCTION Transport Contract:
// the metadata envelope a FUNCTION-transport step carries to decide
// whether an invocation dispatches in-process or against a remote
// runtime/module/handler.
package functiontransport

import (
	"context"
	"fmt"
	"strings"
)

// InvocationMode selects local or remote dispatch for a FUNCTION step.
type InvocationMode string

const (
	ModeLocal  InvocationMode = "LOCAL"
	ModeRemote InvocationMode = "REMOTE"
)

// Metadata keys carried by the invocation envelope (a gRPC/HTTP header
// map, a function-invocation payload, or similar).
const (
	KeyInvocationMode = "invocation.mode"
	KeyTargetRuntime  = "target.runtime"
	KeyTargetModule   = "target.module"
	KeyTargetHandler  = "target.handler"
)

// Target names the remote runtime/module/handler a REMOTE dispatch
// invokes, populated from the target.* metadata keys.
type Target struct {
	Runtime string
	Module  string
	Handler string
}

// Metadata is the parsed FUNCTION Transport Contract envelope.
type Metadata struct {
	Mode   InvocationMode
	Target Target
}

// ParseMetadata reads the contract keys out of a string-keyed metadata
// map. A blank or absent invocation.mode defaults to LOCAL: a caller
// that supplies neither key means in-process dispatch.
func ParseMetadata(md map[string]string) (Metadata, error) {
	mode := InvocationMode(strings.ToUpper(strings.TrimSpace(md[KeyInvocationMode])))
	if mode == "" {
		mode = ModeLocal
	}
	if mode != ModeLocal && mode != ModeRemote {
		return Metadata{}, fmt.Errorf("functiontransport: invalid %s %q", KeyInvocationMode, mode)
	}

	target := Target{
		Runtime: md[KeyTargetRuntime],
		Module:  md[KeyTargetModule],
		Handler: md[KeyTargetHandler],
	}
	if mode == ModeRemote && target.Handler == "" {
		return Metadata{}, fmt.Errorf("functiontransport: REMOTE dispatch requires %s", KeyTargetHandler)
	}
	return Metadata{Mode: mode, Target: target}, nil
}

// Dispatch routes to local or remote per md.Mode.
func Dispatch[T any](ctx context.Context, md Metadata, local func(context.Context) (T, error), remote func(context.Context, Target) (T, error)) (T, error) {
	var zero T
	switch md.Mode {
	case ModeRemote:
		if remote == nil {
			return zero, fmt.Errorf("functiontransport: REMOTE dispatch requested but no remote dispatcher configured")
		}
		return remote(ctx, md.Target)
	default:
		if local == nil {
			return zero, fmt.Errorf("functiontransport: LOCAL dispatch requested but no local handler configured")
		}
		return local(ctx)
	}
}

type contextKey struct{}

// WithMetadata attaches a raw metadata map to ctx for a downstream
// client step to parse via MetadataFromContext.
func WithMetadata(ctx context.Context, md map[string]string) context.Context {
	return context.WithValue(ctx, contextKey{}, md)
}

// MetadataFromContext retrieves the raw metadata map attached by
// WithMetadata, or nil if none was attached.
func MetadataFromContext(ctx context.Context) map[string]string {
	md, _ := ctx.Value(contextKey{}).(map[string]string)
	return md
}
