package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/service"
	"github.com/lzhlsy00/video-gen/internal/statuslog"
	ws "github.com/lzhlsy00/video-gen/internal/websocket"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []string
}

func (e *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task.Type())
	return &asynq.TaskInfo{}, nil
}

func (e *recordingEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// closedConn records JSON writes and reports the peer as gone on first read.
type closedConn struct {
	mu       sync.Mutex
	json     []interface{}
	writeErr error
}

func (c *closedConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("closed")
}

func (c *closedConn) WriteMessage(int, []byte) error { return nil }

func (c *closedConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.json = append(c.json, v)
	return c.writeErr
}

func newStreamHandler(t *testing.T, st *stubStore) (*VideoHandler, *recordingEnqueuer) {
	t.Helper()
	log := zerolog.Nop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	enq := &recordingEnqueuer{}
	statusService := service.NewStatusService(st, statuslog.NewNormalizer(statuslog.Options{}), nil, log)
	watchService := service.NewWatchService(enq, time.Minute, log)
	return NewVideoHandler(statusService, nil, watchService, hub, log), enq
}

func TestServeStream_FinishedJobCompletesWithoutWatch(t *testing.T) {
	st := &stubStore{
		videos:   map[string]*model.Video{"done": {ID: "1", VideoID: "done", VideoURL: strPtr("https://cdn/done.mp4")}},
		statuses: map[string][]model.StatusEntry{},
	}
	h, enq := newStreamHandler(t, st)
	conn := &closedConn{}

	h.ServeStream(conn, "done", "en")

	require.Len(t, conn.json, 1)
	assert.Equal(t, model.WSCompleteMessage{
		Type:     model.WSMessageTypeComplete,
		VideoID:  "done",
		VideoURL: "https://cdn/done.mp4",
		Redirect: "/video/done/complete",
	}, conn.json[0])
	assert.Zero(t, enq.count())
}

func TestServeStream_WriteFailureStillReturns(t *testing.T) {
	st := &stubStore{
		videos:   map[string]*model.Video{"done": {ID: "1", VideoID: "done", VideoURL: strPtr("https://cdn/done.mp4")}},
		statuses: map[string][]model.StatusEntry{},
	}
	h, enq := newStreamHandler(t, st)
	conn := &closedConn{writeErr: errors.New("broken pipe")}

	h.ServeStream(conn, "done", "en")

	assert.Len(t, conn.json, 1)
	assert.Zero(t, enq.count())
}

func TestServeStream_PendingJobSchedulesWatch(t *testing.T) {
	st := &stubStore{
		videos:   map[string]*model.Video{"pending": {ID: "2", VideoID: "pending"}},
		statuses: map[string][]model.StatusEntry{},
	}
	h, enq := newStreamHandler(t, st)
	conn := &closedConn{}

	h.ServeStream(conn, "pending", "zh")

	assert.Empty(t, conn.json)
	assert.Equal(t, 1, enq.count())
	assert.Equal(t, []string{service.TaskTypeWatch}, enq.tasks)
}
