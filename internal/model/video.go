package model

// BackendVideo is one entry of the backend's GET /videos listings
type BackendVideo struct {
	VideoID   string  `json:"video_id"`
	VideoURL  *string `json:"video_url"`
	Prompt    string  `json:"prompt,omitempty"`
	Status    string  `json:"status,omitempty"`
	UserName  string  `json:"user_name,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// HasResult reports whether the listing entry points at a rendered video.
func (v BackendVideo) HasResult() bool {
	return v.VideoURL != nil && *v.VideoURL != ""
}

// VideoListResponse wraps a listing. UserName is set for owner-scoped lists.
type VideoListResponse struct {
	Videos   []BackendVideo `json:"videos"`
	Count    int            `json:"count"`
	UserName string         `json:"user_name,omitempty"`
}

// VideoDetailResponse is returned for a single owned video
type VideoDetailResponse struct {
	Video    BackendVideo `json:"video"`
	UserName string       `json:"user_name"`
}

// HealthResponse reports reachability of the generation backend
type HealthResponse struct {
	Status         string          `json:"status"`
	BackendURL     string          `json:"backend_url,omitempty"`
	ResponseStatus int             `json:"response_status,omitempty"`
	ResponseTimeMs int64           `json:"response_time,omitempty"`
	ResponseText   string          `json:"response_text,omitempty"`
	VideoCount     int             `json:"video_count"`
	Environment    string          `json:"environment,omitempty"`
	Services       map[string]bool `json:"services,omitempty"`
	Error          string          `json:"error,omitempty"`
	Timestamp      string          `json:"timestamp"`
}
