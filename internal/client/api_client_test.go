package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhlsy00/video-gen/internal/model"
)

func TestAPIClient_PollDecodesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/video/job-1/status", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "zh", r.Header.Get("Accept-Language"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"video_id":"job-1","video_url":null,"build_status":"rendering","terminal_output":[],"is_complete":false,"current_step":3,"total_steps":6}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "tok", "zh", time.Second)
	snap, err := c.Poll(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "rendering", snap.BuildStatus)
	require.NotNil(t, snap.CurrentStep)
	assert.Equal(t, 3, *snap.CurrentStep)
	assert.Nil(t, snap.VideoURL)
}

func TestAPIClient_MapsErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"video not found"}}`))
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL, "", "", time.Second)
	_, err := c.Lookup(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "video not found")
}

func TestAPIClient_UnreachableIsTransient(t *testing.T) {
	c := NewAPIClient("http://127.0.0.1:1", "", "", 200*time.Millisecond)
	_, err := c.Poll(context.Background(), "x")
	assert.ErrorIs(t, err, model.ErrTransient)
}
