package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/events"
)

var baseTime = time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

func startedEvent(inst api.InstanceID, steps ...api.StepID) *api.Event {
	return &api.Event{
		Kind:          api.EventFlowStarted,
		SessionID:     "s1",
		Timestamp:     baseTime,
		InstanceID:    inst,
		FlowID:        "release",
		FlowName:      "Release",
		ExpectedSteps: steps,
	}
}

func stepEvent(inst api.InstanceID, step api.StepID) *api.Event {
	return &api.Event{
		Kind:       api.EventStepCompleted,
		SessionID:  "s1",
		Timestamp:  baseTime.Add(time.Minute),
		InstanceID: inst,
		FlowID:     "release",
		StepID:     step,
	}
}

func completedEvent(inst api.InstanceID) *api.Event {
	return &api.Event{
		Kind:       api.EventFlowCompleted,
		SessionID:  "s1",
		Timestamp:  baseTime.Add(2 * time.Minute),
		InstanceID: inst,
	}
}

func TestReplayBuildsInstances(t *testing.T) {
	st := events.Replay([]*api.Event{
		startedEvent("release-1", "build", "test", "publish"),
		stepEvent("release-1", "build"),
		stepEvent("release-1", "test"),
	})

	inst, ok := st.Get("release-1")
	require.True(t, ok)
	assert.Equal(t, api.FlowID("release"), inst.FlowID)
	assert.Equal(t, []api.StepID{"build", "test"}, inst.CompletedSteps)
	assert.Equal(t, []api.StepID{"publish"}, inst.PendingSteps)
	assert.Equal(t, baseTime, inst.StartedAt)
	assert.False(t, inst.CompletionRecorded)
}

func TestReplayIsDeterministic(t *testing.T) {
	evs := []*api.Event{
		startedEvent("release-1", "build", "publish"),
		stepEvent("release-1", "build"),
		stepEvent("release-1", "build"),
		stepEvent("release-1", "publish"),
		completedEvent("release-1"),
	}

	first := events.Replay(evs)
	second := events.Replay(evs)

	a, _ := first.Get("release-1")
	b, _ := second.Get("release-1")
	assert.Equal(t, a, b)
	assert.Equal(t, 2, a.StepCounts["build"])
	assert.True(t, a.CompletionRecorded)
}

func TestReplayIgnoresUnknownInstances(t *testing.T) {
	st := events.Replay([]*api.Event{
		stepEvent("ghost-1", "build"),
		completedEvent("ghost-2"),
		startedEvent("release-1", "build"),
	})

	assert.Equal(t, 1, st.Len())
	_, ok := st.Get("ghost-1")
	assert.False(t, ok)
}

func TestReplayIgnoresUnknownKinds(t *testing.T) {
	st := events.Replay([]*api.Event{
		startedEvent("release-1", "build"),
		{Kind: "flow_paused", SessionID: "s1", InstanceID: "release-1"},
	})

	inst, ok := st.Get("release-1")
	require.True(t, ok)
	assert.Empty(t, inst.CompletedSteps)
}

func TestReplayDuplicateStartReplacesInstance(t *testing.T) {
	started := startedEvent("release-1", "build", "publish")
	st := events.Replay([]*api.Event{
		started,
		stepEvent("release-1", "build"),
		started,
	})

	inst, _ := st.Get("release-1")
	assert.Empty(t, inst.CompletedSteps)
	assert.Equal(t, []api.StepID{"build", "publish"}, inst.PendingSteps)
	assert.Equal(t, 1, st.Len())
}

func TestReplayRepeatableCounts(t *testing.T) {
	st := events.Replay([]*api.Event{
		startedEvent("release-1", "build", "publish"),
		stepEvent("release-1", "build"),
		stepEvent("release-1", "build"),
		stepEvent("release-1", "build"),
	})

	inst, _ := st.Get("release-1")
	assert.Equal(t, 3, inst.StepCounts["build"])
	assert.Equal(t, []api.StepID{"build"}, inst.CompletedSteps)
	assert.Equal(t, []api.StepID{"publish"}, inst.PendingSteps)
}

func TestDiscoveryOrder(t *testing.T) {
	st := events.Replay([]*api.Event{
		startedEvent("release-1", "build"),
		startedEvent("release-2", "build"),
		startedEvent("release-3", "build"),
	})

	all := st.All()
	require.Len(t, all, 3)
	assert.Equal(t, api.InstanceID("release-1"), all[0].InstanceID)
	assert.Equal(t, api.InstanceID("release-3"), all[2].InstanceID)
}

func TestSnapshotIsolation(t *testing.T) {
	st := events.Replay([]*api.Event{
		startedEvent("release-1", "build", "publish"),
	})

	snap := st.Snapshot()
	require.Len(t, snap, 1)
	snap[0].CompletedSteps = append(snap[0].CompletedSteps, "build")
	snap[0].StepCounts["build"] = 5

	inst, _ := st.Get("release-1")
	assert.Empty(t, inst.CompletedSteps)
	assert.Zero(t, inst.StepCounts["build"])
}
