package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/waypost/pkg/api"
)

func TestInstanceIsComplete(t *testing.T) {
	def := testDefinition()

	t.Run("completion event wins", func(t *testing.T) {
		inst := &api.FlowInstance{
			PendingSteps:       []api.StepID{"build"},
			CompletionRecorded: true,
		}
		assert.True(t, inst.IsComplete(def))
		assert.True(t, inst.IsComplete(nil))
	})

	t.Run("completion step finishes early", func(t *testing.T) {
		inst := &api.FlowInstance{
			CompletedSteps: []api.StepID{"build", "publish"},
			PendingSteps:   []api.StepID{"test"},
		}
		assert.True(t, inst.IsComplete(def))
	})

	t.Run("completion step needs the definition", func(t *testing.T) {
		inst := &api.FlowInstance{
			CompletedSteps: []api.StepID{"build", "publish"},
			PendingSteps:   []api.StepID{"test"},
		}
		assert.False(t, inst.IsComplete(nil))
	})

	t.Run("all expected steps done", func(t *testing.T) {
		inst := &api.FlowInstance{
			CompletedSteps: []api.StepID{"build", "test", "publish"},
		}
		assert.True(t, inst.IsComplete(nil))
	})

	t.Run("pending steps remain", func(t *testing.T) {
		inst := &api.FlowInstance{
			CompletedSteps: []api.StepID{"build"},
			PendingSteps:   []api.StepID{"test", "publish"},
		}
		assert.False(t, inst.IsComplete(def))
	})
}

func TestInstanceClone(t *testing.T) {
	inst := &api.FlowInstance{
		InstanceID:     "release-1",
		Context:        api.Context{"tag": "v1.2.3"},
		StepCounts:     map[api.StepID]int{"build": 2},
		ExpectedSteps:  []api.StepID{"build", "publish"},
		CompletedSteps: []api.StepID{"build"},
		PendingSteps:   []api.StepID{"publish"},
	}

	dup := inst.Clone()
	dup.Context["tag"] = "v9.9.9"
	dup.StepCounts["build"] = 7
	dup.CompletedSteps[0] = "publish"

	assert.Equal(t, "v1.2.3", inst.Context["tag"])
	assert.Equal(t, 2, inst.StepCounts["build"])
	assert.Equal(t, api.StepID("build"), inst.CompletedSteps[0])
}

func TestInstanceHasCompleted(t *testing.T) {
	inst := &api.FlowInstance{
		CompletedSteps: []api.StepID{"build", "test"},
	}
	assert.True(t, inst.HasCompleted("build"))
	assert.False(t, inst.HasCompleted("publish"))
	assert.True(t, inst.CompletedSet().Contains("test"))
}
