package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage carries the latest snapshot of a job still being polled
type WSProgressMessage struct {
	Type     string          `json:"type"`
	VideoID  string          `json:"videoId"`
	Snapshot *StatusSnapshot `json:"snapshot"`
}

// WSCompleteMessage tells subscribers the result view is ready
type WSCompleteMessage struct {
	Type     string `json:"type"`
	VideoID  string `json:"videoId"`
	VideoURL string `json:"videoUrl"`
	Redirect string `json:"redirect"`
}

// WSErrorMessage represents a job-level failure
type WSErrorMessage struct {
	Type    string  `json:"type"`
	VideoID string  `json:"videoId"`
	Error   WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
