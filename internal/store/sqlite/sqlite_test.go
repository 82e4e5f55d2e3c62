package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhlsy00/video-gen/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "status.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFindVideo_NotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.FindVideo(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rowID, err := s.CreateVideo(ctx, "job-1", "a cat explains recursion")
	require.NoError(t, err)

	one, two := 1, 2
	require.NoError(t, s.AppendStatus(ctx, rowID, &two, "Rendering scenes"))
	require.NoError(t, s.AppendStatus(ctx, rowID, &one, "Script ready"))
	require.NoError(t, s.AppendStatus(ctx, rowID, nil, "Queued"))

	v, err := s.FindVideo(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, rowID, v.ID)
	assert.False(t, v.HasResult())
	assert.False(t, v.CreatedAt.IsZero())

	entries, err := s.ListStatus(ctx, rowID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	// NULL steps sort first in SQLite.
	assert.Nil(t, entries[0].Step)
	assert.Equal(t, "Script ready", entries[1].BuildStatus)
	assert.Equal(t, "Rendering scenes", entries[2].BuildStatus)

	require.NoError(t, s.SetVideoURL(ctx, "job-1", "https://cdn.example/job-1.mp4"))
	v, err = s.FindVideo(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, v.HasResult())
}
