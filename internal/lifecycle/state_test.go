package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhlsy00/video-gen/internal/model"
)

func TestNext(t *testing.T) {
	url := "https://cdn.example/v.mp4"
	tests := []struct {
		name string
		from State
		snap *model.StatusSnapshot
		want State
	}{
		{"processing stays polling", Polling, &model.StatusSnapshot{BuildStatus: "Rendering"}, Polling},
		{"complete marker", Polling, &model.StatusSnapshot{IsComplete: true}, Complete},
		{"result url", Polling, &model.StatusSnapshot{IsComplete: true, VideoURL: &url}, Complete},
		{"failure", Polling, &model.StatusSnapshot{Error: "❌ render failed"}, Failed},
		{"complete wins over error", Polling, &model.StatusSnapshot{IsComplete: true, Error: "❌"}, Complete},
		{"nil snapshot", Polling, nil, Polling},
		{"complete is absorbing", Complete, &model.StatusSnapshot{Error: "❌"}, Complete},
		{"failed is absorbing", Failed, &model.StatusSnapshot{IsComplete: true}, Failed},
		{"submitting ignores snapshots", Submitting, &model.StatusSnapshot{IsComplete: true}, Submitting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.from, tt.snap))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "polling", Polling.String())
	assert.True(t, Complete.Terminal())
	assert.True(t, Failed.Terminal())
	assert.False(t, Polling.Terminal())
}

type submitFunc func(context.Context, *model.GenerateRequest) (*model.GenerateResponse, error)

func (f submitFunc) Submit(ctx context.Context, req *model.GenerateRequest) (*model.GenerateResponse, error) {
	return f(ctx, req)
}

func TestSubmit(t *testing.T) {
	ok := submitFunc(func(context.Context, *model.GenerateRequest) (*model.GenerateResponse, error) {
		return &model.GenerateResponse{VideoID: "job-1"}, nil
	})
	resp, state, err := Submit(context.Background(), ok, &model.GenerateRequest{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, Polling, state)
	assert.Equal(t, "job-1", resp.VideoID)

	bad := submitFunc(func(context.Context, *model.GenerateRequest) (*model.GenerateResponse, error) {
		return nil, model.Upstream(500, "boom")
	})
	_, state, err = Submit(context.Background(), bad, &model.GenerateRequest{Prompt: "x"})
	assert.Equal(t, Failed, state)
	assert.ErrorIs(t, err, model.ErrUpstream)
}

type lookupFunc func(context.Context, string) (*model.ResultView, error)

func (f lookupFunc) Lookup(ctx context.Context, id string) (*model.ResultView, error) {
	return f(ctx, id)
}

func TestResolve(t *testing.T) {
	ready := lookupFunc(func(_ context.Context, id string) (*model.ResultView, error) {
		return &model.ResultView{VideoID: id, VideoURL: "https://cdn/x.mp4", Ready: true}, nil
	})
	view, state, err := Resolve(context.Background(), ready, "job-1")
	require.NoError(t, err)
	assert.Equal(t, Complete, state)
	assert.Equal(t, "https://cdn/x.mp4", view.VideoURL)

	pending := lookupFunc(func(_ context.Context, id string) (*model.ResultView, error) {
		return &model.ResultView{VideoID: id, Redirect: "/video/" + id}, nil
	})
	_, state, err = Resolve(context.Background(), pending, "job-1")
	require.NoError(t, err)
	assert.Equal(t, Polling, state)

	missing := lookupFunc(func(context.Context, string) (*model.ResultView, error) {
		return nil, model.NotFound("video not found")
	})
	_, _, err = Resolve(context.Background(), missing, "job-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
