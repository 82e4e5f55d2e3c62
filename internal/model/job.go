package model

import "time"

// Job is one generation request. Only the backend mutates it after submission.
type Job struct {
	ID        string    `json:"video_id"`
	Prompt    string    `json:"prompt"`
	VideoURL  *string   `json:"video_url"`
	Status    JobStatus `json:"status"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Video is a row of the hosted `videos` table. ID is the internal row id
// referenced by status entries; VideoID is the public job identifier.
type Video struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video_id"`
	VideoURL  *string   `json:"video_url"`
	CreatedAt time.Time `json:"created_at"`
}

// HasResult reports whether the backend has attached a playable artifact.
func (v *Video) HasResult() bool {
	return v != nil && v.VideoURL != nil && *v.VideoURL != ""
}

// WatchJobPayload is the asynq payload of a server-side watch task
type WatchJobPayload struct {
	VideoID   string    `json:"videoId"`
	Locale    string    `json:"locale,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}
