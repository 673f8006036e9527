package monitor_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/waypost/internal/eventlog"
	"github.com/kode4food/waypost/internal/monitor"
	"github.com/kode4food/waypost/pkg/api"
	"github.com/kode4food/waypost/pkg/catalog"
	"github.com/kode4food/waypost/pkg/tracker"
)

const updateTimeout = 3 * time.Second

func testDefinition() *api.Definition {
	return &api.Definition{
		ID:   "ship",
		Name: "Ship",
		Steps: []*api.Step{
			{ID: "pack", Name: "Pack", Order: 0, Required: true},
			{ID: "send", Name: "Send", Order: 1, Required: true},
		},
		CompletionStep: "send",
	}
}

func testMonitor(
	t *testing.T,
) (*monitor.Monitor, *tracker.Tracker, *eventlog.Store) {
	t.Helper()
	reg := catalog.NewRegistry()
	require.NoError(t, reg.Register(testDefinition()))
	store := eventlog.New(t.TempDir())
	tr := tracker.New(reg, store, tracker.WithSession("s1"))
	m := monitor.New(store, reg, monitor.WithDebounce(10*time.Millisecond))
	return m, tr, store
}

func receiveUpdate(
	t *testing.T, ch <-chan *monitor.Update,
) *monitor.Update {
	t.Helper()
	select {
	case up, ok := <-ch:
		require.True(t, ok, "update feed closed")
		return up
	case <-time.After(updateTimeout):
		require.Fail(t, "timed out waiting for update")
		return nil
	}
}

func TestMonitorInitialScan(t *testing.T) {
	m, tr, _ := testMonitor(t)
	ctx := context.Background()

	id, ok := tr.StartFlow(ctx, "ship", nil, "")
	require.True(t, ok)
	require.True(t, tr.CompleteStep(ctx, id, "pack", ""))

	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	assert.Equal(t, []api.SessionID{"s1"}, m.Sessions())

	flows := m.SessionFlows("s1")
	require.Len(t, flows, 1)
	assert.Equal(t, id, flows[0].InstanceID)
	assert.Equal(t, []api.StepID{"pack"}, flows[0].CompletedSteps)
	assert.False(t, flows[0].Complete)

	inst, found := m.Flow("s1", id)
	require.True(t, found)
	assert.Equal(t, id, inst.InstanceID)

	_, found = m.Flow("s1", "missing")
	assert.False(t, found)
	assert.Empty(t, m.SessionFlows("never"))
}

func TestMonitorStreamsNewEvents(t *testing.T) {
	m, tr, _ := testMonitor(t)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	cons := m.NewConsumer()
	defer cons.Close()

	id, ok := tr.StartFlow(ctx, "ship", api.Context{"order": "42"}, "")
	require.True(t, ok)

	up := receiveUpdate(t, cons.Receive())
	assert.Equal(t, api.SessionID("s1"), up.Session)
	assert.Equal(t, api.EventFlowStarted, up.Event.Kind)
	require.NotNil(t, up.Instance)
	assert.Equal(t, id, up.Instance.InstanceID)
	assert.Equal(t, "42", up.Instance.Context["order"])

	require.True(t, tr.CompleteStep(ctx, id, "send", ""))

	up = receiveUpdate(t, cons.Receive())
	assert.Equal(t, api.EventStepCompleted, up.Event.Kind)
	assert.Equal(t, api.StepID("send"), up.Event.StepID)

	// The completion satisfied the flow's completion step, so the
	// tracker's finished record follows
	up = receiveUpdate(t, cons.Receive())
	assert.Equal(t, api.EventFlowCompleted, up.Event.Kind)
	require.NotNil(t, up.Instance)
	assert.True(t, up.Instance.Complete)
}

func TestMonitorRebuildsOnShrink(t *testing.T) {
	m, tr, store := testMonitor(t)
	ctx := context.Background()

	id, ok := tr.StartFlow(ctx, "ship", nil, "")
	require.True(t, ok)
	require.True(t, tr.CompleteStep(ctx, id, "pack", ""))

	require.NoError(t, m.Start(ctx))
	defer m.Stop()
	require.Len(t, m.SessionFlows("s1"), 1)

	require.NoError(t, store.RemoveSession("s1"))
	fresh, ok := tr.StartFlow(ctx, "ship", nil, "")
	require.True(t, ok)
	assert.NotEqual(t, id, fresh)

	assert.Eventually(t, func() bool {
		flows := m.SessionFlows("s1")
		return len(flows) == 1 && flows[0].InstanceID == fresh
	}, updateTimeout, 10*time.Millisecond)
}

func TestMonitorIgnoresGarbageRecords(t *testing.T) {
	m, tr, store := testMonitor(t)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	id, ok := tr.StartFlow(ctx, "ship", nil, "")
	require.True(t, ok)

	f, err := os.OpenFile(store.SessionPath("s1"),
		os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("not a record\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.True(t, tr.CompleteStep(ctx, id, "pack", ""))

	assert.Eventually(t, func() bool {
		inst, found := m.Flow("s1", id)
		return found && len(inst.CompletedSteps) == 1
	}, updateTimeout, 10*time.Millisecond)
}
