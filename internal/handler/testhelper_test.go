package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/auth"
	"github.com/lzhlsy00/video-gen/internal/client"
	"github.com/lzhlsy00/video-gen/internal/middleware"
	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/service"
	"github.com/lzhlsy00/video-gen/internal/statuslog"
	ws "github.com/lzhlsy00/video-gen/internal/websocket"
)

const (
	testJWTSecret      = "test-secret-for-handlers"
	testMaxUploadFiles = 2
)

type stubBackend struct {
	mu sync.Mutex

	generateCalls int
	lastCred      string
	generateErr   error

	videos   []model.BackendVideo
	uploaded []string

	probe    *client.ProbeResult
	probeErr error
}

func (b *stubBackend) Generate(_ context.Context, p *model.GeneratePayload, cred string) (*model.GenerateResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generateCalls++
	b.lastCred = cred
	if b.generateErr != nil {
		return nil, b.generateErr
	}
	return &model.GenerateResponse{VideoID: "vid-1", Status: model.JobStatusProcessing, Message: "queued: " + p.Prompt}, nil
}

func (b *stubBackend) ListVideos(context.Context) (*model.VideoListResponse, error) {
	return &model.VideoListResponse{Videos: append([]model.BackendVideo(nil), b.videos...)}, nil
}

func (b *stubBackend) ListUserVideos(context.Context, string) (*model.VideoListResponse, error) {
	return &model.VideoListResponse{Videos: append([]model.BackendVideo(nil), b.videos...)}, nil
}

func (b *stubBackend) Upload(_ context.Context, files []client.UploadFile, _ string) (json.RawMessage, error) {
	for _, f := range files {
		body, _ := io.ReadAll(f.Body)
		b.uploaded = append(b.uploaded, f.Name+":"+string(body))
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func (b *stubBackend) Probe(context.Context) (*client.ProbeResult, error) {
	return b.probe, b.probeErr
}

type stubStore struct {
	videos   map[string]*model.Video
	statuses map[string][]model.StatusEntry
	err      error
}

func (s *stubStore) FindVideo(_ context.Context, id string) (*model.Video, error) {
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.videos[id]
	if !ok {
		return nil, model.NotFound("video not found")
	}
	return v, nil
}

func (s *stubStore) ListStatus(_ context.Context, uuid string) ([]model.StatusEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.statuses[uuid], nil
}

func (s *stubStore) Close() error { return nil }

type testApp struct {
	app     *fiber.App
	backend *stubBackend
	store   *stubStore
}

// setupApp wires the routes the way main.go does, with stubbed backend and
// store, no redis and no asynq.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	log := zerolog.Nop()
	backend := &stubBackend{}
	st := &stubStore{videos: map[string]*model.Video{}, statuses: map[string][]model.StatusEntry{}}

	normalizer := statuslog.NewNormalizer(statuslog.Options{})
	statusService := service.NewStatusService(st, normalizer, nil, log)
	videoService := service.NewVideoService(backend, log)
	generationService := service.NewGenerationService(backend, validator.New(), log)
	uploadService := service.NewUploadService(backend, nil, log)
	healthService := service.NewHealthService(backend, "test", nil, log)

	resolver := auth.NewResolver(log, auth.NewHMACVerifier(testJWTSecret))
	identity := middleware.NewIdentityMiddleware(resolver, false)

	generateHandler := NewGenerateHandler(generationService, nil, log)
	videoHandler := NewVideoHandler(statusService, videoService, nil, ws.NewHub(log), log)
	uploadHandler := NewUploadHandler(uploadService)
	healthHandler := NewHealthHandler(healthService)
	authHandler := NewAuthHandler(resolver)

	app := fiber.New(fiber.Config{BodyLimit: model.UploadBodyLimit(testMaxUploadFiles)})
	app.Use(middleware.Locale("en"))
	app.Get("/auth/verify", authHandler.Verify)

	api := app.Group("/api", identity.Resolve())
	api.Get("/health", healthHandler.Health)
	api.Post("/generate", generateHandler.Generate)
	api.Post("/upload", uploadHandler.Upload)
	api.Get("/explore-videos", videoHandler.Explore)
	api.Get("/my-videos", middleware.RequireIdentity("Please login to view your videos"), videoHandler.MyVideos)
	api.Get("/video/:id/status", videoHandler.Status)
	api.Get("/video/:id/result", videoHandler.Result)
	api.Get("/video/:id", middleware.RequireIdentity("Please login to view this video"), videoHandler.Video)

	return &testApp{app: app, backend: backend, store: st}
}

func generateToken(t *testing.T) string {
	t.Helper()
	token, err := auth.SignHMAC(testJWTSecret, "user-123", "test@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + generateToken(t),
	})
}

func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertErrorCode(t *testing.T, body map[string]interface{}, expected string) {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
	if errObj["code"] != expected {
		t.Errorf("expected error code %q, got %v", expected, errObj["code"])
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
