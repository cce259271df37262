package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStep struct {
	id   string
	deps []string
	ran  *[]string
	err  error
}

func (f *fakeStep) ID() string             { return f.id }
func (f *fakeStep) Name() string           { return f.id }
func (f *fakeStep) Dependencies() []string { return f.deps }

func (f *fakeStep) Execute(ctx context.Context, state *RunState) error {
	if f.ran != nil {
		*f.ran = append(*f.ran, f.id)
	}
	return f.err
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&fakeStep{id: "a"}))
	assert.True(t, r.Has("a"))

	assert.Error(t, r.Register(&fakeStep{id: "a"}), "duplicate ID")
	assert.Error(t, r.Register(&fakeStep{id: ""}), "empty ID")
	assert.Error(t, r.Register(nil), "nil step")
}

func TestRegistry_ExecutionOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeStep{id: "report", deps: []string{"enrich", "validate"}}))
	require.NoError(t, r.Register(&fakeStep{id: "load"}))
	require.NoError(t, r.Register(&fakeStep{id: "correct", deps: []string{"load"}}))
	require.NoError(t, r.Register(&fakeStep{id: "enrich", deps: []string{"correct"}}))
	require.NoError(t, r.Register(&fakeStep{id: "validate", deps: []string{"correct"}}))

	order, err := r.ExecutionOrder()
	require.NoError(t, err)

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["load"], pos["correct"])
	assert.Less(t, pos["correct"], pos["enrich"])
	assert.Less(t, pos["correct"], pos["validate"])
	assert.Less(t, pos["enrich"], pos["report"])
	assert.Less(t, pos["validate"], pos["report"])
}

func TestRegistry_ExecutionOrder_UnknownDependency(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeStep{id: "a", deps: []string{"ghost"}}))

	_, err := r.ExecutionOrder()
	assert.Error(t, err)
}

func TestRegistry_ExecutionOrder_Cycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakeStep{id: "a", deps: []string{"b"}}))
	require.NoError(t, r.Register(&fakeStep{id: "b", deps: []string{"a"}}))

	_, err := r.ExecutionOrder()
	assert.Error(t, err)
}

func TestStepState_Lifecycle(t *testing.T) {
	st := NewStepState("load", "Ingest")
	assert.Equal(t, StepStatusPending, st.Status)
	assert.Zero(t, st.Duration())

	st.Start()
	assert.Equal(t, StepStatusActive, st.Status)

	st.Complete()
	assert.Equal(t, StepStatusCompleted, st.Status)
	assert.NotNil(t, st.EndTime)

	failed := NewStepState("x", "x")
	failed.Start()
	failed.Fail(assert.AnError)
	assert.Equal(t, StepStatusFailed, failed.Status)
	assert.Equal(t, assert.AnError, failed.Err)
}
