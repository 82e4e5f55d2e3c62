package model

import "time"

// StatusEntry is one row of the hosted `status` table.
type StatusEntry struct {
	ID          string    `json:"-"`
	VideoUUID   string    `json:"-"`
	Step        *int      `json:"step"`
	BuildStatus string    `json:"build_status"`
	CreatedAt   time.Time `json:"created_at"`
}

// StepOr returns the entry's step, or fallback when the backend left it unset.
func (e StatusEntry) StepOr(fallback int) int {
	if e.Step == nil {
		return fallback
	}
	return *e.Step
}

// StatusSnapshot is the normalized, point-in-time view of a job's progress.
// Steps holds the filtered status history.
type StatusSnapshot struct {
	VideoID        string        `json:"video_id"`
	VideoURL       *string       `json:"video_url"`
	BuildStatus    string        `json:"build_status"`
	TerminalOutput []string      `json:"terminal_output"`
	IsComplete     bool          `json:"is_complete"`
	Error          string        `json:"error,omitempty"`
	Steps          []StatusEntry `json:"steps,omitempty"`
	CurrentStep    *int          `json:"current_step,omitempty"`
	TotalSteps     *int          `json:"total_steps,omitempty"`
}

// Failed reports whether the snapshot carries a job-level failure.
func (s *StatusSnapshot) Failed() bool {
	return s != nil && s.Error != ""
}

// ResultView is returned by the direct lookup used by the "result ready" view.
type ResultView struct {
	VideoID  string `json:"video_id"`
	VideoURL string `json:"video_url,omitempty"`
	Ready    bool   `json:"ready"`
	Redirect string `json:"redirect,omitempty"`
}
