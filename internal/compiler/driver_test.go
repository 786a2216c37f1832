package compiler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/pipelineframework/corepipe/internal/errs"
	"github.com/pipelineframework/corepipe/internal/pipelineconfig"
	"github.com/pipelineframework/corepipe/internal/placement"
	"github.com/pipelineframework/corepipe/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestDescriptorSet(t *testing.T, dir string) {
	t.Helper()
	set := &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{
			{Name: proto.String("orders.proto"), Package: proto.String("orders"), Syntax: proto.String("proto3")},
		},
	}
	data, err := proto.Marshal(set)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "descriptor_set.bin"), data, 0o644))
}

func TestDriverRunsFullPipelineInOrder(t *testing.T) {
	tmp := t.TempDir()
	writeTestDescriptorSet(t, tmp)
	sandbox, err := storage.NewSandbox(tmp)
	require.NoError(t, err)

	cc := NewCompilationContext(tmp)
	cc.PipelineFile = &pipelineconfig.PipelineFile{
		BasePackage: "generated",
		Steps: []pipelineconfig.StepDecl{
			{
				Name:        "fetchOrder",
				InputType:   "OrderId",
				OutputType:  "OrderDto",
				Cardinality: "ONE_ONE",
				Service:     "com.example.OrderService",
			},
			{
				Name:        "enrichOrder",
				InputType:   "OrderDto",
				OutputType:  "EnrichedOrderDto",
				Cardinality: "ONE_ONE",
				Operator:    "com.example.Enricher",
				Transport:   "LOCAL",
			},
		},
	}
	cc.RuntimeMapping = &placement.RuntimeMapping{
		Validation: placement.ValidationAuto,
		Defaults:   placement.Defaults{Module: "orders-module"},
	}

	phases := []Phase{
		DiscoveryPhase{},
		ModelExtractionPhase{},
		RuntimeMappingPhase{},
		SemanticAnalysisPhase{},
		TargetResolutionPhase{},
		BindingConstructionPhase{},
		GenerationPhase{Sandbox: sandbox},
		InfrastructurePhase{Sandbox: sandbox},
	}

	driver := NewDriver(phases, nil)
	result, err := driver.Run(context.Background(), cc)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, cc.Steps, 2)
	assert.Equal(t, "orders-module", cc.StepModules["fetchOrder"])

	exists, err := sandbox.Exists("metadata/order.json")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = sandbox.Exists("generated/fetchOrder_handler.go")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDriverStopsOnPhaseFailure(t *testing.T) {
	cc := NewCompilationContext(t.TempDir())
	cc.PipelineFile = &pipelineconfig.PipelineFile{
		Steps: []pipelineconfig.StepDecl{
			{Name: "bad", Cardinality: "NOT_A_CARDINALITY", Service: "com.example.Svc"},
		},
	}

	phases := []Phase{DiscoveryPhase{}, ModelExtractionPhase{}, RuntimeMappingPhase{}}
	driver := NewDriver(phases, nil)
	result, err := driver.Run(context.Background(), cc)
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 1)
}

func TestRuntimeMappingStrictRequiresModuleName(t *testing.T) {
	cc := NewCompilationContext(t.TempDir())
	cc.PipelineFile = &pipelineconfig.PipelineFile{
		Steps: []pipelineconfig.StepDecl{
			{Name: "fetchOrder", InputType: "OrderId", OutputType: "OrderDto", Cardinality: "ONE_ONE", Service: "com.example.OrderService"},
		},
	}
	cc.RuntimeMapping = &placement.RuntimeMapping{
		Validation: placement.ValidationStrict,
		Steps:      map[string]string{"fetchOrder": "orders-module"},
	}

	phases := []Phase{DiscoveryPhase{}, ModelExtractionPhase{}, RuntimeMappingPhase{}}
	driver := NewDriver(phases, nil)
	_, err := driver.Run(context.Background(), cc)
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidConfiguration, errs.Classify(err))
	assert.Contains(t, err.Error(), "module.name")

	named := NewCompilationContext(t.TempDir())
	named.PipelineFile = cc.PipelineFile
	named.RuntimeMapping = cc.RuntimeMapping
	named.ModuleName = "orders-module"
	_, err = driver.Run(context.Background(), named)
	require.NoError(t, err)
	assert.Equal(t, "orders-module", named.StepModules["fetchOrder"])
}
