package api_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/waypost/pkg/api"
)

func TestEventValidate(t *testing.T) {
	t.Run("flow started", func(t *testing.T) {
		ev := &api.Event{
			Kind:       api.EventFlowStarted,
			SessionID:  "s1",
			InstanceID: "release-1",
			FlowID:     "release",
		}
		assert.NoError(t, ev.Validate())

		ev.FlowID = ""
		assert.ErrorIs(t, ev.Validate(), api.ErrNoFlowID)
	})

	t.Run("step completed", func(t *testing.T) {
		ev := &api.Event{
			Kind:       api.EventStepCompleted,
			SessionID:  "s1",
			InstanceID: "release-1",
			StepID:     "build",
		}
		assert.NoError(t, ev.Validate())

		ev.StepID = ""
		assert.ErrorIs(t, ev.Validate(), api.ErrNoStepID)
	})

	t.Run("flow completed", func(t *testing.T) {
		ev := &api.Event{
			Kind:       api.EventFlowCompleted,
			SessionID:  "s1",
			InstanceID: "release-1",
		}
		assert.NoError(t, ev.Validate())
	})

	t.Run("unknown kind", func(t *testing.T) {
		ev := &api.Event{
			Kind:       "flow_paused",
			SessionID:  "s1",
			InstanceID: "release-1",
		}
		assert.ErrorIs(t, ev.Validate(), api.ErrUnknownEventKind)
	})

	t.Run("missing envelope fields", func(t *testing.T) {
		ev := &api.Event{Kind: api.EventFlowCompleted, SessionID: "s1"}
		assert.ErrorIs(t, ev.Validate(), api.ErrNoInstanceID)

		ev = &api.Event{Kind: api.EventFlowCompleted, InstanceID: "i1"}
		assert.ErrorIs(t, ev.Validate(), api.ErrNoSessionID)
	})
}

func TestEventEncoding(t *testing.T) {
	ev := &api.Event{
		Kind:          api.EventFlowStarted,
		SessionID:     "s1",
		Timestamp:     time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
		InstanceID:    "release-1",
		FlowID:        "release",
		FlowName:      "Release",
		ExpectedSteps: []api.StepID{"build", "publish"},
		Context:       api.Context{"tag": "v2.0.0"},
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var got api.Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ev.Kind, got.Kind)
	assert.Equal(t, ev.ExpectedSteps, got.ExpectedSteps)
	assert.True(t, ev.Context.Equal(got.Context))

	// kind-specific fields stay out of other kinds' records
	done, err := json.Marshal(&api.Event{
		Kind:       api.EventFlowCompleted,
		SessionID:  "s1",
		InstanceID: "release-1",
	})
	require.NoError(t, err)
	assert.NotContains(t, string(done), "expected_steps")
	assert.NotContains(t, string(done), "step_id")
}
