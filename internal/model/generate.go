package model

// GenerateRequest is the caller-facing submission body. Every optional field
// falls back to its Default* value when omitted. Option values are not
// enumerated here; the backend decides which ones it accepts.
type GenerateRequest struct {
	Prompt       string     `json:"prompt"`
	Resolution   Resolution `json:"resolution,omitempty"`
	IncludeAudio *bool      `json:"include_audio,omitempty"`
	Voice        Voice      `json:"voice,omitempty"`
	Language     Language   `json:"language,omitempty"`
	SyncMethod   SyncMethod `json:"sync_method,omitempty"`
}

// GeneratePayload is exactly what gets forwarded to POST /generate.
// It is validated after trimming and defaulting.
type GeneratePayload struct {
	Prompt       string     `json:"prompt" validate:"required"`
	Resolution   Resolution `json:"resolution" validate:"required"`
	IncludeAudio bool       `json:"include_audio"`
	Voice        Voice      `json:"voice" validate:"required"`
	Language     Language   `json:"language" validate:"required"`
	SyncMethod   SyncMethod `json:"sync_method" validate:"required"`
}

// GenerateResponse mirrors the backend's job handle. EstimatedSeconds is
// computed locally from the prompt.
type GenerateResponse struct {
	VideoID          string    `json:"video_id"`
	VideoURL         string    `json:"video_url"`
	Status           JobStatus `json:"status"`
	Message          string    `json:"message"`
	EstimatedSeconds int       `json:"estimated_seconds,omitempty"`
}
