package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/client"
	"github.com/lzhlsy00/video-gen/internal/model"
)

// Generation time estimate, in seconds.
const (
	estimateBase        = 30
	estimateLongPrompt  = 30
	estimateMidPrompt   = 15
	estimateAudioBuffer = 15
	longPromptWords     = 50
	midPromptWords      = 20
)

// GenerationService validates submissions and forwards them to the backend
type GenerationService struct {
	backend   client.GenerationBackend
	validator *validator.Validate
	log       zerolog.Logger
}

func NewGenerationService(backend client.GenerationBackend, v *validator.Validate, log zerolog.Logger) *GenerationService {
	return &GenerationService{
		backend:   backend,
		validator: v,
		log:       log.With().Str("component", "generation").Logger(),
	}
}

// Generate submits req. A blank prompt fails before any network call. The backend's job handle is returned unchanged apart from the
// local time estimate.
func (s *GenerationService) Generate(ctx context.Context, req *model.GenerateRequest, credential string) (*model.GenerateResponse, error) {
	payload, err := s.BuildPayload(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.backend.Generate(ctx, payload, credential)
	if err != nil {
		s.log.Warn().Err(err).Msg("generation request failed")
		return nil, err
	}

	resp.EstimatedSeconds = EstimateSeconds(payload.Prompt, payload.IncludeAudio)
	s.log.Info().
		Str("video_id", resp.VideoID).
		Str("resolution", string(payload.Resolution)).
		Bool("include_audio", payload.IncludeAudio).
		Msg("generation submitted")
	return resp, nil
}

// BuildPayload trims the prompt and fills every omitted option with its
// default. Values the caller did set are forwarded as given.
func (s *GenerationService) BuildPayload(req *model.GenerateRequest) (*model.GeneratePayload, error) {
	if req == nil {
		return nil, model.InvalidRequest("Prompt is required")
	}

	payload := &model.GeneratePayload{
		Prompt:       strings.TrimSpace(req.Prompt),
		Resolution:   req.Resolution,
		IncludeAudio: model.DefaultIncludeAudio,
		Voice:        req.Voice,
		Language:     req.Language,
		SyncMethod:   req.SyncMethod,
	}
	if req.IncludeAudio != nil {
		payload.IncludeAudio = *req.IncludeAudio
	}
	if payload.Resolution == "" {
		payload.Resolution = model.DefaultResolution
	}
	if payload.Voice == "" {
		payload.Voice = model.DefaultVoice
	}
	if payload.Language == "" {
		payload.Language = model.DefaultLanguage
	}
	if payload.SyncMethod == "" {
		payload.SyncMethod = model.DefaultSyncMethod
	}

	if err := s.validate(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *GenerationService) validate(payload *model.GeneratePayload) error {
	if payload.Prompt == "" {
		return model.InvalidRequest("Prompt is required")
	}
	if s.validator == nil {
		return nil
	}
	if err := s.validator.Struct(payload); err != nil {
		e := model.InvalidRequest("Validation failed")
		e.Details = FormatValidationErrors(err)
		return e
	}
	return nil
}

// EstimateSeconds guesses how long a generation will take from prompt length.
func EstimateSeconds(prompt string, includeAudio bool) int {
	seconds := estimateBase
	words := len(strings.Fields(prompt))
	switch {
	case words > longPromptWords:
		seconds += estimateLongPrompt
	case words > midPromptWords:
		seconds += estimateMidPrompt
	}
	if includeAudio {
		seconds += estimateAudioBuffer
	}
	return seconds
}

// FormatValidationErrors maps validator failures to field → tag.
func FormatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
