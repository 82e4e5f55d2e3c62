package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhlsy00/video-gen/internal/lifecycle"
	"github.com/lzhlsy00/video-gen/internal/logger"
	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/statuslog"
)

func newStatusService(st *fakeStore, c *memCache) *StatusService {
	n := statuslog.NewNormalizer(statuslog.Options{})
	if c == nil {
		return NewStatusService(st, n, nil, logger.Nop())
	}
	return NewStatusService(st, n, c, logger.Nop())
}

func entry(step int, msg string, at time.Time) model.StatusEntry {
	return model.StatusEntry{Step: intPtr(step), BuildStatus: msg, CreatedAt: at}
}

func TestPoll_UnknownJobIsInitializing(t *testing.T) {
	svc := newStatusService(newFakeStore(), nil)

	snap, err := svc.Poll(context.Background(), "job-1", "en")
	require.NoError(t, err)
	assert.Equal(t, "job-1", snap.VideoID)
	assert.Nil(t, snap.CurrentStep)
	assert.Nil(t, snap.VideoURL)
	assert.False(t, snap.IsComplete)
	assert.Equal(t, "Initializing video generation...", snap.BuildStatus)

	snap, err = svc.Poll(context.Background(), "job-1", "zh")
	require.NoError(t, err)
	assert.Equal(t, "正在初始化视频生成...", snap.BuildStatus)
}

func TestLookup_UnknownJobIsNotFound(t *testing.T) {
	svc := newStatusService(newFakeStore(), nil)
	_, err := svc.Lookup(context.Background(), "job-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPoll_FiltersNoiseAndReportsLatest(t *testing.T) {
	st := newFakeStore()
	st.videos["job-1"] = &model.Video{ID: "row-1", VideoID: "job-1"}
	t0 := time.Now()
	st.statuses["row-1"] = []model.StatusEntry{
		entry(2, "Generating narration", t0.Add(2*time.Second)),
		entry(1, "Script ready", t0),
		entry(2, "2024-05-01 10:00:00 - services.tts - WARNING slow", t0.Add(3*time.Second)),
	}
	svc := newStatusService(st, nil)

	snap, err := svc.Poll(context.Background(), "job-1", "en")
	require.NoError(t, err)
	assert.Equal(t, "Generating narration", snap.BuildStatus)
	assert.Equal(t, 2, *snap.CurrentStep)
	assert.Equal(t, 6, *snap.TotalSteps)
	assert.Len(t, snap.Steps, 2)
	assert.False(t, snap.IsComplete)
	assert.Empty(t, snap.TerminalOutput)
}

func TestPoll_ResultURLCompletesAndIsCached(t *testing.T) {
	st := newFakeStore()
	st.videos["job-1"] = &model.Video{ID: "row-1", VideoID: "job-1", VideoURL: strPtr("https://cdn/job-1.mp4")}
	st.statuses["row-1"] = []model.StatusEntry{entry(6, "Uploading", time.Now())}
	c := &memCache{}
	svc := newStatusService(st, c)

	snap, err := svc.Poll(context.Background(), "job-1", "en")
	require.NoError(t, err)
	assert.True(t, snap.IsComplete)
	assert.Equal(t, 7, *snap.TotalSteps)

	// The backend pruning its rows must not undo completion.
	st.videos = map[string]*model.Video{}
	again, err := svc.Poll(context.Background(), "job-1", "en")
	require.NoError(t, err)
	assert.True(t, again.IsComplete)
}

func TestPoll_ProcessingIsNotCached(t *testing.T) {
	st := newFakeStore()
	st.videos["job-1"] = &model.Video{ID: "row-1", VideoID: "job-1"}
	c := &memCache{}
	svc := newStatusService(st, c)

	_, err := svc.Poll(context.Background(), "job-1", "en")
	require.NoError(t, err)
	_, ok := c.Get(context.Background(), "job-1", "en")
	assert.False(t, ok)
}

func TestPoll_FailedIsNotCached(t *testing.T) {
	st := newFakeStore()
	st.videos["job-1"] = &model.Video{ID: "row-1", VideoID: "job-1"}
	st.statuses["row-1"] = []model.StatusEntry{entry(3, "❌ render crashed", time.Now())}
	c := &memCache{}
	svc := newStatusService(st, c)

	snap, err := svc.Poll(context.Background(), "job-1", "en")
	require.NoError(t, err)
	require.True(t, snap.Failed())
	_, ok := c.Get(context.Background(), "job-1", "en")
	assert.False(t, ok)

	// A result that appears afterwards is authoritative.
	st.videos["job-1"].VideoURL = strPtr("https://cdn/job-1.mp4")
	again, err := svc.Poll(context.Background(), "job-1", "en")
	require.NoError(t, err)
	assert.True(t, again.IsComplete)
	require.NotNil(t, again.VideoURL)
	assert.Equal(t, "https://cdn/job-1.mp4", *again.VideoURL)
}

func TestPoll_CacheIsPerLocale(t *testing.T) {
	st := newFakeStore()
	st.videos["job-1"] = &model.Video{ID: "row-1", VideoID: "job-1", VideoURL: strPtr("https://cdn/job-1.mp4")}
	c := &memCache{}
	svc := newStatusService(st, c)

	zh, err := svc.Poll(context.Background(), "job-1", "zh")
	require.NoError(t, err)
	require.True(t, zh.IsComplete)

	en, err := svc.Poll(context.Background(), "job-1", "en")
	require.NoError(t, err)
	assert.NotEqual(t, zh.BuildStatus, en.BuildStatus)

	_, ok := c.Get(context.Background(), "job-1", "en")
	assert.True(t, ok)
}

func TestPoll_StoreErrorsPropagate(t *testing.T) {
	st := newFakeStore()
	st.err = model.Transient("status store unreachable", errors.New("dial tcp"))
	svc := newStatusService(st, nil)

	_, err := svc.Poll(context.Background(), "job-1", "en")
	assert.ErrorIs(t, err, model.ErrTransient)
}

func TestPoll_BlankID(t *testing.T) {
	svc := newStatusService(newFakeStore(), nil)
	_, err := svc.Poll(context.Background(), "  ", "en")
	assert.ErrorIs(t, err, model.ErrInvalidRequest)
}

func TestLookup(t *testing.T) {
	st := newFakeStore()
	st.videos["done"] = &model.Video{ID: "r1", VideoID: "done", VideoURL: strPtr("https://cdn/done.mp4")}
	st.videos["busy"] = &model.Video{ID: "r2", VideoID: "busy"}
	svc := newStatusService(st, nil)

	view, err := svc.Lookup(context.Background(), "done")
	require.NoError(t, err)
	assert.True(t, view.Ready)
	assert.Equal(t, "https://cdn/done.mp4", view.VideoURL)

	view, err = svc.Lookup(context.Background(), "busy")
	require.NoError(t, err)
	assert.False(t, view.Ready)
	assert.Equal(t, "/video/busy", view.Redirect)
}

// A finished job re-entered through Resolve is never polled.
func TestResolve_FinishedJobSkipsPolling(t *testing.T) {
	st := newFakeStore()
	st.videos["done"] = &model.Video{ID: "r1", VideoID: "done", VideoURL: strPtr("https://cdn/done.mp4")}
	svc := newStatusService(st, nil)

	_, state, err := lifecycle.Resolve(context.Background(), svc, "done")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Complete, state)
	assert.Equal(t, 1, st.finds)
}

func TestPoller_DrivesLifecycleToCompletion(t *testing.T) {
	st := newFakeStore()
	st.videos["job-1"] = &model.Video{ID: "row-1", VideoID: "job-1"}
	st.statuses["row-1"] = []model.StatusEntry{entry(1, "Script ready", time.Now())}
	svc := newStatusService(st, nil)

	var updates int
	h := lifecycle.Start(context.Background(), svc.Poller("en"), "job-1", lifecycle.Options{
		Interval: 5 * time.Millisecond,
		OnUpdate: func(*model.StatusSnapshot) {
			updates++
			if updates == 2 {
				st.mu.Lock()
				st.videos["job-1"].VideoURL = strPtr("https://cdn/job-1.mp4")
				st.mu.Unlock()
			}
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := h.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.Complete, out.State)
	assert.Equal(t, "https://cdn/job-1.mp4", *out.Snapshot.VideoURL)
}
