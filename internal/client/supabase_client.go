package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/config"
	"github.com/lzhlsy00/video-gen/internal/model"
)

// SupabaseUser is the subset of GET /auth/v1/user this service reads
type SupabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SupabaseClient talks to the hosted identity service and its PostgREST API.
type SupabaseClient struct {
	rc      *resty.Client
	baseURL string
	anonKey string
	dataKey string
	log     zerolog.Logger
}

// NewSupabaseClient creates a client for cfg. Table reads use the service role
// key when one is configured, the anon key otherwise.
func NewSupabaseClient(cfg *config.SupabaseConfig, timeout time.Duration, log zerolog.Logger) *SupabaseClient {
	dataKey := cfg.ServiceRoleKey
	if dataKey == "" {
		dataKey = cfg.AnonKey
	}

	rc := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("apikey", cfg.AnonKey)

	return &SupabaseClient{
		rc:      rc,
		baseURL: cfg.URL,
		anonKey: cfg.AnonKey,
		dataKey: dataKey,
		log:     log.With().Str("component", "supabase").Logger(),
	}
}

// IsConfigured returns true if the project URL and a key are present
func (c *SupabaseClient) IsConfigured() bool {
	return c != nil && c.baseURL != "" && c.anonKey != ""
}

// JWKSURL is where the project publishes its signing keys.
func (c *SupabaseClient) JWKSURL() string {
	return strings.TrimRight(c.baseURL, "/") + "/auth/v1/.well-known/jwks.json"
}

// GetUser resolves an access token to its user through the auth API.
func (c *SupabaseClient) GetUser(ctx context.Context, accessToken string) (*SupabaseUser, error) {
	var user SupabaseUser
	resp, err := c.rc.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&user).
		Get("/auth/v1/user")
	if err != nil {
		return nil, c.transportError(ctx, err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, model.Unauthorized("invalid or expired token")
	case resp.IsError():
		return nil, model.Upstream(resp.StatusCode(), "identity lookup failed")
	case user.ID == "":
		return nil, model.Unauthorized("token has no user")
	}
	return &user, nil
}

// Select runs a PostgREST read against table and decodes the JSON array into result.
func (c *SupabaseClient) Select(ctx context.Context, table string, query url.Values, result interface{}) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetAuthToken(c.dataKey).
		SetQueryParamsFromValues(query).
		SetResult(result).
		Get("/rest/v1/" + table)
	if err != nil {
		return c.transportError(ctx, err)
	}
	if resp.IsError() {
		c.log.Warn().Int("status", resp.StatusCode()).Str("table", table).Str("body", resp.String()).Msg("postgrest query failed")
		if resp.StatusCode() >= http.StatusInternalServerError {
			return model.Transient("status store unavailable", errors.New(resp.Status()))
		}
		return model.Upstream(resp.StatusCode(), "status store query failed")
	}
	return nil
}

func (c *SupabaseClient) transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	c.log.Warn().Err(err).Msg("supabase request failed")
	return model.Transient("status store unreachable", err)
}
