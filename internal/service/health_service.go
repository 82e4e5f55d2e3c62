package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/client"
	"github.com/lzhlsy00/video-gen/internal/model"
)

// Pinger checks one dependency.
type Pinger func(ctx context.Context) error

// HealthService reports whether the generation backend is reachable
type HealthService struct {
	backend client.GenerationBackend
	env     string
	pingers map[string]Pinger
	log     zerolog.Logger
}

// NewHealthService creates the health checker. pingers are reported in the
// services map alongside the backend probe.
func NewHealthService(backend client.GenerationBackend, env string, pingers map[string]Pinger, log zerolog.Logger) *HealthService {
	return &HealthService{
		backend: backend,
		env:     env,
		pingers: pingers,
		log:     log.With().Str("component", "health").Logger(),
	}
}

// Check probes the backend. The error is non-nil only when the backend could
// not be reached at all; an unhealthy HTTP answer is described in the response.
func (s *HealthService) Check(ctx context.Context) (*model.HealthResponse, error) {
	resp := &model.HealthResponse{
		Environment: s.env,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if len(s.pingers) > 0 {
		resp.Services = make(map[string]bool, len(s.pingers))
		for name, ping := range s.pingers {
			resp.Services[name] = ping(ctx) == nil
		}
	}

	probe, err := s.backend.Probe(ctx)
	if probe != nil {
		resp.BackendURL = probe.URL
		resp.ResponseTimeMs = probe.ResponseTime.Milliseconds()
	}
	if err != nil {
		s.log.Error().Err(err).Msg("backend health probe failed")
		resp.Status = "error"
		resp.Error = err.Error()
		return resp, err
	}

	resp.ResponseStatus = probe.StatusCode
	if probe.StatusCode < 200 || probe.StatusCode >= 300 {
		s.log.Warn().Int("status", probe.StatusCode).Msg("backend unhealthy")
		resp.Status = "error"
		resp.ResponseText = probe.Body
		resp.Error = fmt.Sprintf("Backend returned %d: %s", probe.StatusCode, http.StatusText(probe.StatusCode))
		return resp, nil
	}

	resp.Status = "ok"
	resp.VideoCount = probe.VideoCount
	return resp, nil
}
