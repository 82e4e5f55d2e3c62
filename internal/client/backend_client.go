package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/config"
	"github.com/lzhlsy00/video-gen/internal/model"
)

// GenerationBackend is the opaque service that renders videos.
type GenerationBackend interface {
	Generate(ctx context.Context, payload *model.GeneratePayload, credential string) (*model.GenerateResponse, error)
	ListVideos(ctx context.Context) (*model.VideoListResponse, error)
	ListUserVideos(ctx context.Context, userName string) (*model.VideoListResponse, error)
	Upload(ctx context.Context, files []UploadFile, credential string) (json.RawMessage, error)
	Probe(ctx context.Context) (*ProbeResult, error)
}

// UploadFile is one part of a multipart upload forwarded to the backend
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProbeResult describes one health probe against GET /videos
type ProbeResult struct {
	URL          string
	StatusCode   int
	ResponseTime time.Duration
	Body         string
	VideoCount   int
}

// BackendClient implements GenerationBackend over plain HTTP
type BackendClient struct {
	httpClient *http.Client
	baseURL    string
	cfg        config.BackendConfig
	log        zerolog.Logger
}

// NewBackendClient creates a new generation backend client
func NewBackendClient(cfg *config.BackendConfig, log zerolog.Logger) *BackendClient {
	return &BackendClient{
		// Per-call deadlines come from the context; this is the outer bound.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:        *cfg,
		log:        log.With().Str("component", "backend").Logger(),
	}
}

// BaseURL returns the backend root the client talks to
func (c *BackendClient) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if the client has somewhere to send requests
func (c *BackendClient) IsConfigured() bool {
	return c.baseURL != ""
}

// Generate submits a generation request and returns the backend's job handle.
func (c *BackendClient) Generate(ctx context.Context, payload *model.GeneratePayload, credential string) (*model.GenerateResponse, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.GenerateTimeout)
	defer cancel()

	var result model.GenerateResponse
	if err := c.post(ctx, "/generate", payload, credential, &result); err != nil {
		return nil, describe(err, "Video generation failed")
	}
	return &result, nil
}

// ListVideos retrieves every video known to the backend
func (c *BackendClient) ListVideos(ctx context.Context) (*model.VideoListResponse, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.ListTimeout)
	defer cancel()

	var result model.VideoListResponse
	if err := c.get(ctx, "/videos", &result); err != nil {
		return nil, describe(err, "Failed to fetch videos")
	}
	return &result, nil
}

// ListUserVideos retrieves the videos owned by userName
func (c *BackendClient) ListUserVideos(ctx context.Context, userName string) (*model.VideoListResponse, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.ListTimeout)
	defer cancel()

	endpoint := "/videos/user/" + url.PathEscape(userName)
	var result model.VideoListResponse
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, describe(err, "Failed to fetch videos")
	}
	return &result, nil
}

// Upload forwards files as multipart "files" parts and returns the backend's
// response body untouched. Parts are streamed through a pipe so file bytes
// are never held in memory as a whole.
func (c *BackendClient) Upload(ctx context.Context, files []UploadFile, credential string) (json.RawMessage, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.UploadTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeParts(mw, files))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if credential != "" {
		req.Header.Set("Authorization", credential)
	}

	var result json.RawMessage
	if err := c.doRequest(req, &result); err != nil {
		return nil, describe(err, "File upload failed")
	}
	return result, nil
}

// writeParts encodes files into mw and finalizes the body.
func writeParts(mw *multipart.Writer, files []UploadFile) error {
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		h.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create multipart part: %w", err)
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return fmt.Errorf("failed to copy %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return nil
}

// Probe checks backend reachability through GET /videos. Non-2xx responses
// are reported in the result rather than as an error.
func (c *BackendClient) Probe(ctx context.Context) (*ProbeResult, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	probe := &ProbeResult{URL: c.baseURL + "/videos"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probe.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	probe.ResponseTime = time.Since(start)
	if err != nil {
		return probe, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	probe.StatusCode = resp.StatusCode
	probe.Body = string(raw)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var list model.VideoListResponse
		if err := json.Unmarshal(raw, &list); err == nil {
			probe.VideoCount = len(list.Videos)
		}
	}
	return probe, nil
}

// post sends a POST request with JSON body
func (c *BackendClient) post(ctx context.Context, endpoint string, body interface{}, credential string, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", credential)
	}

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *BackendClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *BackendClient) doRequest(req *http.Request, result interface{}) error {
	c.log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("→ backend")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("backend request failed")
		return transportError(req.Context(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Transient("failed to read backend response", err)
	}

	c.log.Debug().Int("status", resp.StatusCode).Str("method", req.Method).Str("url", req.URL.String()).Msg("← backend")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := model.Upstream(resp.StatusCode, upstreamReason(resp.StatusCode, respBody))
		e.Details = string(respBody)
		return e
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		c.log.Error().Err(err).Str("url", req.URL.String()).Str("body", string(respBody)).Msg("backend response unmarshal failed")
		return model.Upstream(resp.StatusCode, "malformed backend response")
	}

	return nil
}

// upstreamReason picks a human message out of an error body, falling back to
// the HTTP status text.
func upstreamReason(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			return payload.Error
		case payload.Message != "":
			return payload.Message
		case payload.Detail != nil:
			if s, ok := payload.Detail.(string); ok {
				return s
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

// describe prefixes upstream messages with the operation that failed.
func describe(err error, operation string) error {
	var e *model.Error
	if errors.As(err, &e) && e.Kind == model.KindUpstream {
		e.Message = fmt.Sprintf("%s: %s", operation, e.Message)
	}
	return err
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return model.Transient("backend request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return model.Transient("backend unreachable", err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
