package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/pkg/response"
)

// APIClient is the command-line client for this service's own HTTP API.
type APIClient struct {
	rc *resty.Client
}

// NewAPIClient creates a client for the gateway at baseURL. token, when set,
// is sent as a bearer credential on every request.
func NewAPIClient(baseURL, token, locale string, timeout time.Duration) *APIClient {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}
	if locale != "" {
		rc.SetHeader("Accept-Language", locale)
	}
	return &APIClient{rc: rc}
}

// Submit posts a generation request.
func (c *APIClient) Submit(ctx context.Context, req *model.GenerateRequest) (*model.GenerateResponse, error) {
	var out model.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Poll fetches the current snapshot of jobID.
func (c *APIClient) Poll(ctx context.Context, jobID string) (*model.StatusSnapshot, error) {
	var out model.StatusSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/video/"+url.PathEscape(jobID)+"/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Lookup performs the direct lookup used when re-entering a finished job.
func (c *APIClient) Lookup(ctx context.Context, jobID string) (*model.ResultView, error) {
	var out model.ResultView
	if err := c.do(ctx, http.MethodGet, "/api/video/"+url.PathEscape(jobID)+"/result", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyVideos lists the videos owned by the token's user.
func (c *APIClient) MyVideos(ctx context.Context) (*model.VideoListResponse, error) {
	var out model.VideoListResponse
	if err := c.do(ctx, http.MethodGet, "/api/my-videos", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Explore returns a random sample of finished videos.
func (c *APIClient) Explore(ctx context.Context) (*model.VideoListResponse, error) {
	var out model.VideoListResponse
	if err := c.do(ctx, http.MethodGet, "/api/explore-videos", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) do(ctx context.Context, method, endpoint string, body, result interface{}) error {
	var envelope response.ErrorResponse
	req := c.rc.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&envelope)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return model.Transient("gateway unreachable", err)
	}
	if !resp.IsError() {
		return nil
	}

	msg := envelope.Error.Message
	if msg == "" {
		msg = resp.Status()
	}
	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return model.InvalidRequest(msg)
	case http.StatusUnauthorized:
		return model.Unauthorized(msg)
	case http.StatusNotFound:
		return model.NotFound(msg)
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return model.Transient(msg, nil)
	default:
		e := model.Upstream(resp.StatusCode(), msg)
		e.Details = envelope.Error.Details
		return e
	}
}
