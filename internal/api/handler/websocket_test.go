package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/findoc_server/internal/model"
	"github.com/qs3c/findoc_server/internal/pkg/pubsub"
	"github.com/qs3c/findoc_server/internal/pkg/ws"
	"github.com/qs3c/findoc_server/internal/service"
	"github.com/qs3c/findoc_server/internal/testutil"
)

type wsMessage struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

func dialJob(t *testing.T, server *httptest.Server, jobID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/jobs/" + jobID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketHandler_StreamsProgress(t *testing.T) {
	env := setupHandlerEnv(t, service.NewInlineDispatcher())
	testutil.TestJob(t, env.db, testutil.WithJobID("job-ws"), testutil.WithStatus(model.StatusProcessing))

	hub := ws.NewHub()
	router := gin.New()
	router.GET("/ws/jobs/:job_id", NewWebSocketHandler(hub, env.status, nil).Handle)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialJob(t, server, "job-ws")

	snapshot := readMessage(t, conn)
	assert.Equal(t, "job_status", snapshot.Type)
	assert.Equal(t, "processing", snapshot.Data["status"])
	assert.True(t, hub.IsWatched("job-ws"))

	require.NoError(t, hub.PublishProgress(context.Background(), &pubsub.ProgressMessage{
		JobID:  "job-ws",
		Status: "processing",
		Step:   pubsub.StepVerification,
	}))

	progress := readMessage(t, conn)
	assert.Equal(t, "job_progress", progress.Type)
	assert.Equal(t, pubsub.StepVerification, progress.Data["step"])
	assert.EqualValues(t, 75, progress.Data["progress"])
}

func TestWebSocketHandler_RejectsForeignOrigin(t *testing.T) {
	hub := ws.NewHub()
	router := gin.New()
	router.GET("/ws/jobs/:job_id", NewWebSocketHandler(hub, nil, []string{"http://localhost:3000"}).Handle)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/jobs/job-x"
	header := map[string][]string{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	assert.Error(t, err)
	if resp != nil {
		assert.Equal(t, 403, resp.StatusCode)
	}
	assert.Zero(t, hub.ConnectionCount())
}
