package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhlsy00/video-gen/internal/logger"
	"github.com/lzhlsy00/video-gen/internal/model"
)

type fakeArchive struct {
	keys []string
	fail bool
}

func (a *fakeArchive) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if a.fail {
		return "", errors.New("bucket missing")
	}
	io.Copy(io.Discard, body)
	a.keys = append(a.keys, key)
	return "https://files.example/" + key, nil
}

func (a *fakeArchive) Delete(context.Context, string) error { return nil }

func TestUploadValidate(t *testing.T) {
	svc := NewUploadService(&fakeBackend{}, nil, logger.Nop())

	assert.ErrorIs(t, svc.Validate(nil), model.ErrInvalidRequest)

	big := source("big.pdf", "application/pdf", "x")
	big.Size = model.MaxUploadSize + 1
	assert.ErrorIs(t, svc.Validate([]UploadSource{big}), model.ErrInvalidRequest)

	exe := source("run.exe", "application/x-msdownload", "x")
	assert.ErrorIs(t, svc.Validate([]UploadSource{exe}), model.ErrInvalidRequest)

	assert.NoError(t, svc.Validate([]UploadSource{
		source("a.pdf", "application/pdf", "x"),
		source("b.txt", "text/plain", "x"),
		source("c.tiff", "image/tiff", "x"),
	}))
}

func TestUpload_ForwardsAndArchives(t *testing.T) {
	b := &fakeBackend{}
	archive := &fakeArchive{}
	svc := NewUploadService(b, archive, logger.Nop())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	resp, err := svc.Upload(context.Background(), []UploadSource{
		source("notes.txt", "text/plain", "hello"),
		source("cover.png", "image/png", "png"),
	}, "Bearer tok")
	require.NoError(t, err)

	assert.Equal(t, []string{"notes.txt:hello", "cover.png:png"}, b.uploaded)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	require.Len(t, resp.Archived, 2)
	assert.Contains(t, archive.keys[0], "uploads/2024/05/01/")
	assert.Contains(t, resp.Archived[0].FileURL, "notes.txt")
}

func TestUpload_ArchiveFailureIsNotFatal(t *testing.T) {
	svc := NewUploadService(&fakeBackend{}, &fakeArchive{fail: true}, logger.Nop())
	resp, err := svc.Upload(context.Background(), []UploadSource{source("a.txt", "text/plain", "x")}, "")
	require.NoError(t, err)
	assert.Empty(t, resp.Archived)
}

func TestUpload_BackendErrorPropagates(t *testing.T) {
	svc := NewUploadService(&fakeBackend{uploadErr: model.Upstream(413, "File upload failed: too large")}, nil, logger.Nop())
	_, err := svc.Upload(context.Background(), []UploadSource{source("a.txt", "text/plain", "x")}, "")
	assert.ErrorIs(t, err, model.ErrUpstream)
}
