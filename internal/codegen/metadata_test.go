package codegen

import (
	"testing"

	"github.com/pipelineframework/corepipe/internal/ir"
	"github.com/pipelineframework/corepipe/internal/orderexpander"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderDescriptor(t *testing.T) {
	effective := []orderexpander.EffectiveStep{
		{Step: &ir.StepModel{Name: "a"}},
		{Step: &ir.StepModel{Name: "b"}},
	}
	out, err := BuildOrderDescriptor(effective)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"a"`)
	assert.Contains(t, string(out), `"b"`)
}

func TestBuildOrderDescriptorIncludesSynthetics(t *testing.T) {
	effective := []orderexpander.EffectiveStep{
		{Step: &ir.StepModel{Name: "Tokenize"}},
		{Synthetic: &orderexpander.SyntheticStep{ClassName: "PersistenceTokenBatchSideEffectGrpcClientStep"}},
	}
	out, err := BuildOrderDescriptor(effective)
	require.NoError(t, err)
	assert.Contains(t, string(out), "PersistenceTokenBatchSideEffectGrpcClientStep")
}

func TestBuildClientEndpointTableSkipsInternal(t *testing.T) {
	effective := []orderexpander.EffectiveStep{
		{Step: &ir.StepModel{Name: "internalStep", ExecutionKind: ir.Internal}},
		{Step: &ir.StepModel{Name: "delegatedStep", ExecutionKind: ir.Delegated, Transport: ir.TransportGRPC}},
	}
	out, err := BuildClientEndpointTable(effective, func(s *ir.StepModel) string { return "localhost:9000" })
	require.NoError(t, err)
	assert.Contains(t, string(out), "delegatedStep")
	assert.NotContains(t, string(out), "internalStep")
}

func TestBuildClientEndpointTableIncludesSynthetics(t *testing.T) {
	effective := []orderexpander.EffectiveStep{
		{Synthetic: &orderexpander.SyntheticStep{ClassName: "PersistenceOrderSideEffectGrpcClientStep", Transport: ir.TransportGRPC}},
	}
	out, err := BuildClientEndpointTable(effective, func(s *ir.StepModel) string { return "" })
	require.NoError(t, err)
	assert.Contains(t, string(out), "PersistenceOrderSideEffectGrpcClientStep")
}
