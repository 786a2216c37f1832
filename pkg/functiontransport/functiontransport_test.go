package functiontransport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadataDefaultsToLocal(t *testing.T) {
	md, err := ParseMetadata(nil)
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, md.Mode)
}

func TestParseMetadataRemoteRequiresHandler(t *testing.T) {
	_, err := ParseMetadata(map[string]string{KeyInvocationMode: "REMOTE"})
	require.Error(t, err)
}

func TestParseMetadataRemoteWithTarget(t *testing.T) {
	md, err := ParseMetadata(map[string]string{
		KeyInvocationMode: "remote",
		KeyTargetRuntime:  "lambda",
		KeyTargetModule:   "orders",
		KeyTargetHandler:  "handleOrder",
	})
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, md.Mode)
	assert.Equal(t, Target{Runtime: "lambda", Module: "orders", Handler: "handleOrder"}, md.Target)
}

func TestParseMetadataRejectsUnknownMode(t *testing.T) {
	_, err := ParseMetadata(map[string]string{KeyInvocationMode: "SIDEWAYS"})
	require.Error(t, err)
}

func TestDispatchLocal(t *testing.T) {
	md := Metadata{Mode: ModeLocal}
	out, err := Dispatch(context.Background(), md,
		func(ctx context.Context) (string, error) { return "local", nil },
		func(ctx context.Context, target Target) (string, error) { return "remote", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "local", out)
}

func TestDispatchRemote(t *testing.T) {
	md := Metadata{Mode: ModeRemote, Target: Target{Handler: "h"}}
	var seen Target
	out, err := Dispatch(context.Background(), md,
		func(ctx context.Context) (string, error) { return "local", nil },
		func(ctx context.Context, target Target) (string, error) { seen = target; return "remote", nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "remote", out)
	assert.Equal(t, "h", seen.Handler)
}

func TestDispatchRemoteWithoutDispatcherErrors(t *testing.T) {
	md := Metadata{Mode: ModeRemote, Target: Target{Handler: "h"}}
	_, err := Dispatch[string](context.Background(), md,
		func(ctx context.Context) (string, error) { return "local", nil },
		nil,
	)
	require.Error(t, err)
}

func TestMetadataRoundTripsThroughContext(t *testing.T) {
	ctx := WithMetadata(context.Background(), map[string]string{KeyInvocationMode: "REMOTE", KeyTargetHandler: "h"})
	md, err := ParseMetadata(MetadataFromContext(ctx))
	require.NoError(t, err)
	assert.Equal(t, ModeRemote, md.Mode)
	assert.Equal(t, "h", md.Target.Handler)
}

func TestMetadataFromContextWithoutAttachment(t *testing.T) {
	assert.Nil(t, MetadataFromContext(context.Background()))
}
