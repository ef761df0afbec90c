package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/exynos7580/releasetools/internal/ota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInput() ConditionInput {
	return ConditionInput{
		Target: map[string]string{"product": "a3xelte_lineage", "device": "a3xelte", "variant": "lineage"},
		Vars:   map[string]string{"JOB_NAME": "test"},
	}
}

func TestPipeline_AddStep(t *testing.T) {
	p := NewPipeline("test", nil, ConditionInput{})

	require.NoError(t, p.AddStep("one", &mockStep{name: "one"}, nil))
	err := p.AddStep("one", &mockStep{name: "one"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step one already exists")

	assert.Len(t, p.Steps(), 1)
	assert.Equal(t, "test", p.Name())
}

func TestPipeline_RunInOrder(t *testing.T) {
	var order []string
	record := func(id string) Step {
		return StepFunction(id, "record", func(_ context.Context, info *ota.Info) error {
			order = append(order, id)
			return info.Script.AppendExtra(id)
		})
	}

	p := NewPipeline("test", nil, newTestInput())
	require.NoError(t, p.AddStep("first", record("first"), nil))
	require.NoError(t, p.AddStep("second", record("second"), nil))
	require.NoError(t, p.AddStep("third", record("third"), nil))

	script := ota.NewScript()
	summary, err := p.Run(t.Context(), &ota.Info{Script: script})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, []string{"first", "second", "third"}, script.Lines())
	assert.Equal(t, []string{"first", "second", "third"}, summary.Applied)
	assert.Empty(t, summary.Skipped)
}

func TestPipeline_Conditions(t *testing.T) {
	matching, err := NewCondition(`target.device == "a3xelte"`)
	require.NoError(t, err)
	other, err := NewCondition(`target.device == "a5xelte"`)
	require.NoError(t, err)

	a3 := &mockStep{name: "a3", kind: "mock"}
	a5 := &mockStep{name: "a5", kind: "mock"}
	always := &mockStep{name: "always", kind: "mock"}

	p := NewPipeline("test", nil, newTestInput())
	require.NoError(t, p.AddStep("a3", a3, matching))
	require.NoError(t, p.AddStep("a5", a5, other))
	require.NoError(t, p.AddStep("always", always, nil))

	summary, err := p.Run(t.Context(), &ota.Info{})
	require.NoError(t, err)

	assert.Equal(t, 1, a3.applied)
	assert.Equal(t, 0, a5.applied)
	assert.Equal(t, 1, always.applied)
	assert.Equal(t, []string{"a3", "always"}, summary.Applied)
	assert.Equal(t, []string{"a5"}, summary.Skipped)
}

func TestPipeline_StopsAtFailure(t *testing.T) {
	failing := &mockStep{name: "failing", kind: "mock", err: errors.New("disk full")}
	after := &mockStep{name: "after", kind: "mock"}

	p := NewPipeline("test", nil, newTestInput())
	require.NoError(t, p.AddStep("failing", failing, nil))
	require.NoError(t, p.AddStep("after", after, nil))

	_, err := p.Run(t.Context(), &ota.Info{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply step 'failing'")
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, after.applied)
}

func TestPipeline_ContextCancelled(t *testing.T) {
	step := &mockStep{name: "step", kind: "mock"}
	p := NewPipeline("test", nil, newTestInput())
	require.NoError(t, p.AddStep("step", step, nil))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := p.Run(ctx, &ota.Info{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, step.applied)
}

func TestPipeline_ConditionError(t *testing.T) {
	cond, err := NewCondition(`vars.MISSING == "x"`)
	require.NoError(t, err)

	p := NewPipeline("test", nil, newTestInput())
	require.NoError(t, p.AddStep("step", &mockStep{name: "step"}, cond))

	_, err = p.Run(t.Context(), &ota.Info{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate condition of step 'step'")
}
