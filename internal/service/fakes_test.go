package service

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/lzhlsy00/video-gen/internal/client"
	"github.com/lzhlsy00/video-gen/internal/model"
)

type fakeBackend struct {
	mu sync.Mutex

	generateCalls int
	lastPayload   *model.GeneratePayload
	lastCred      string
	generateResp  *model.GenerateResponse
	generateErr   error

	videos     []model.BackendVideo
	listErr    error
	listedUser string

	uploaded  []string
	uploadErr error

	probe    *client.ProbeResult
	probeErr error
}

func (f *fakeBackend) Generate(_ context.Context, p *model.GeneratePayload, cred string) (*model.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls++
	f.lastPayload = p
	f.lastCred = cred
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	resp := *f.generateResp
	return &resp, nil
}

func (f *fakeBackend) ListVideos(context.Context) (*model.VideoListResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &model.VideoListResponse{Videos: append([]model.BackendVideo(nil), f.videos...), Count: len(f.videos)}, nil
}

func (f *fakeBackend) ListUserVideos(_ context.Context, name string) (*model.VideoListResponse, error) {
	f.listedUser = name
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &model.VideoListResponse{Videos: append([]model.BackendVideo(nil), f.videos...)}, nil
}

func (f *fakeBackend) Upload(_ context.Context, files []client.UploadFile, _ string) (json.RawMessage, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	for _, file := range files {
		body, _ := io.ReadAll(file.Body)
		f.uploaded = append(f.uploaded, file.Name+":"+string(body))
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeBackend) Probe(context.Context) (*client.ProbeResult, error) {
	return f.probe, f.probeErr
}

type fakeStore struct {
	mu       sync.Mutex
	videos   map[string]*model.Video
	statuses map[string][]model.StatusEntry
	err      error
	finds    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{videos: map[string]*model.Video{}, statuses: map[string][]model.StatusEntry{}}
}

func (s *fakeStore) FindVideo(_ context.Context, id string) (*model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.videos[id]
	if !ok {
		return nil, model.NotFound("video not found")
	}
	cp := *v
	return &cp, nil
}

func (s *fakeStore) ListStatus(_ context.Context, uuid string) ([]model.StatusEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]model.StatusEntry(nil), s.statuses[uuid]...), nil
}

func (s *fakeStore) Close() error { return nil }

type memCache struct {
	mu    sync.Mutex
	snaps map[string]*model.StatusSnapshot
}

func (c *memCache) Get(_ context.Context, id, locale string) (*model.StatusSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.snaps[locale+":"+id]
	return s, ok
}

func (c *memCache) Put(_ context.Context, s *model.StatusSnapshot, locale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snaps == nil {
		c.snaps = map[string]*model.StatusSnapshot{}
	}
	c.snaps[locale+":"+s.VideoID] = s
}

func source(name, contentType, body string) UploadSource {
	return UploadSource{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
