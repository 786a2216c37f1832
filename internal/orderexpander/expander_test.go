package orderexpander

import (
	"testing"

	"github.com/pipelineframework/corepipe/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(name, input, output string, transport ir.Transport) *ir.StepModel {
	return &ir.StepModel{Name: name, InputType: input, OutputType: output, Transport: transport}
}

func TestExpandInsertsBeforeAndAfter(t *testing.T) {
	base := []*ir.StepModel{
		step("fetchOrder", "OrderId", "OrderDto", ir.TransportGRPC),
	}
	before := &ir.Aspect{Name: "validate", Enabled: true, Scope: ir.ScopeGlobal, Position: ir.PositionBefore}
	after := &ir.Aspect{Name: "auditLog", Enabled: true, Scope: ir.ScopeGlobal, Position: ir.PositionAfter}

	effective := Expand(base, []*ir.Aspect{before, after})
	require.Len(t, effective, 3)
	assert.NotNil(t, effective[0].Synthetic)
	assert.Equal(t, "validate", effective[0].Synthetic.Aspect.Name)
	assert.Nil(t, effective[1].Synthetic)
	assert.Equal(t, "fetchOrder", effective[1].Step.Name)
	assert.NotNil(t, effective[2].Synthetic)
	assert.Equal(t, "auditLog", effective[2].Synthetic.Aspect.Name)
}

func TestExpandDisabledAspectSkipped(t *testing.T) {
	base := []*ir.StepModel{step("fetchOrder", "OrderId", "OrderDto", ir.TransportLocal)}
	a := &ir.Aspect{Name: "validate", Enabled: false, Scope: ir.ScopeGlobal, Position: ir.PositionBefore}

	effective := Expand(base, []*ir.Aspect{a})
	require.Len(t, effective, 1)
	assert.Nil(t, effective[0].Synthetic)
}

func TestExpandStepsScopeOnlyMatchesTargets(t *testing.T) {
	base := []*ir.StepModel{
		step("fetchOrder", "OrderId", "OrderDto", ir.TransportLocal),
		step("shipOrder", "OrderDto", "ShipmentDto", ir.TransportLocal),
	}
	a := &ir.Aspect{Name: "cacheInvalidate", Enabled: true, Scope: ir.ScopeSteps, Position: ir.PositionAfter, TargetSteps: []string{"fetchOrder"}}

	effective := Expand(base, []*ir.Aspect{a})
	require.Len(t, effective, 3)
	assert.Equal(t, "fetchOrder", effective[0].Step.Name)
	assert.NotNil(t, effective[1].Synthetic)
	assert.Equal(t, "shipOrder", effective[2].Step.Name)
}

func TestExpandDedupsSameAspectTypePair(t *testing.T) {
	base := []*ir.StepModel{
		step("fetchOrder", "OrderId", "OrderDto", ir.TransportLocal),
		step("refetchOrder", "OrderId", "OrderDto", ir.TransportLocal),
	}
	a := &ir.Aspect{Name: "cacheInvalidate", Enabled: true, Scope: ir.ScopeGlobal, Position: ir.PositionBefore}

	effective := Expand(base, []*ir.Aspect{a})
	syntheticCount := 0
	for _, e := range effective {
		if e.Synthetic != nil {
			syntheticCount++
		}
	}
	assert.Equal(t, 1, syntheticCount)
}

func TestExpandIdempotentWhenAlreadySynthetic(t *testing.T) {
	base := []*ir.StepModel{
		{Name: "syntheticAuditLog", DeploymentRole: ir.RoleSynthetic},
		step("fetchOrder", "OrderId", "OrderDto", ir.TransportLocal),
	}
	a := &ir.Aspect{Name: "auditLog", Enabled: true, Scope: ir.ScopeGlobal, Position: ir.PositionAfter}

	effective := Expand(base, []*ir.Aspect{a})
	require.Len(t, effective, 2)
	for _, e := range effective {
		assert.Nil(t, e.Synthetic)
	}
}

func TestSyntheticClassNameConvention(t *testing.T) {
	name := syntheticClassName("cacheInvalidate", "OrderDto", ir.TransportGRPC)
	assert.Equal(t, "CacheInvalidateOrderSideEffectGrpcClientStep", name)
}

// Seed scenario 2: a ONE_MANY step with an AFTER/GLOBAL persistence
// aspect expands to [Tokenize, PersistenceTokenBatchSideEffect...].
func TestExpandPersistenceAspectScenario(t *testing.T) {
	tokenize := &ir.StepModel{Name: "Tokenize", InputType: "Doc", OutputType: "TokenBatch", Cardinality: ir.OneMany, Transport: ir.TransportGRPC}
	persistence := &ir.Aspect{Name: "persistence", Enabled: true, Scope: ir.ScopeGlobal, Position: ir.PositionAfter}

	effective := Expand([]*ir.StepModel{tokenize}, []*ir.Aspect{persistence})
	names := Names(effective)
	require.Equal(t, []string{"Tokenize", "PersistenceTokenBatchSideEffectGrpcClientStep"}, names)
}

func TestExpandIsIdempotent(t *testing.T) {
	base := []*ir.StepModel{step("fetchOrder", "OrderId", "OrderDto", ir.TransportGRPC)}
	aspects := []*ir.Aspect{{Name: "validate", Enabled: true, Scope: ir.ScopeGlobal, Position: ir.PositionBefore}}

	first := Expand(base, aspects)
	firstSteps := make([]*ir.StepModel, 0, len(first))
	for _, e := range first {
		if e.Synthetic != nil {
			firstSteps = append(firstSteps, &ir.StepModel{Name: e.Synthetic.ClassName, DeploymentRole: ir.RoleSynthetic})
			continue
		}
		firstSteps = append(firstSteps, e.Step)
	}

	second := Expand(firstSteps, aspects)
	assert.Equal(t, Names(first), Names(second))
}
