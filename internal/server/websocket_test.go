package server_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/waypost/internal/monitor"
	"github.com/kode4food/waypost/pkg/api"
)

type testWebSocketEnv struct {
	*testServerEnv
	HTTP *httptest.Server
	Conn *websocket.Conn
}

const wsReadTimeout = 3 * time.Second

func (e *testWebSocketEnv) Cleanup() {
	if e.Conn != nil {
		_ = e.Conn.Close()
	}
	e.HTTP.Close()
	e.testServerEnv.Cleanup()
}

func testWebSocket(t *testing.T, query string) *testWebSocketEnv {
	t.Helper()
	env := testServer(t)

	srv := httptest.NewServer(env.Server.SetupRoutes())
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	return &testWebSocketEnv{
		testServerEnv: env,
		HTTP:          srv,
		Conn:          conn,
	}
}

func TestSocketIdle(t *testing.T) {
	env := testWebSocket(t, "")
	defer env.Cleanup()

	_ = env.Conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var up monitor.Update
	assert.Error(t, env.Conn.ReadJSON(&up))
}

func TestSocketReceivesUpdates(t *testing.T) {
	env := testWebSocket(t, "")
	defer env.Cleanup()
	ctx := context.Background()

	id, ok := env.Tracker.StartFlow(ctx, "review", nil, "")
	require.True(t, ok)

	_ = env.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var up monitor.Update
	require.NoError(t, env.Conn.ReadJSON(&up))

	assert.Equal(t, api.SessionID("s1"), up.Session)
	assert.Equal(t, api.EventFlowStarted, up.Event.Kind)
	require.NotNil(t, up.Instance)
	assert.Equal(t, id, up.Instance.InstanceID)
}

func TestSocketSessionFilter(t *testing.T) {
	env := testWebSocket(t, "?session=other")
	defer env.Cleanup()
	ctx := context.Background()

	_, ok := env.Tracker.StartFlow(ctx, "review", nil, "s1")
	require.True(t, ok)
	id, ok := env.Tracker.StartFlow(ctx, "review", nil, "other")
	require.True(t, ok)

	// Only the filtered session's update arrives
	_ = env.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var up monitor.Update
	require.NoError(t, env.Conn.ReadJSON(&up))
	assert.Equal(t, api.SessionID("other"), up.Session)
	assert.Equal(t, id, up.Instance.InstanceID)
}

func TestCloseWebSockets(t *testing.T) {
	env := testWebSocket(t, "")
	defer env.Cleanup()

	env.Server.CloseWebSockets()

	_ = env.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, _, err := env.Conn.ReadMessage()
	assert.Error(t, err)
}
