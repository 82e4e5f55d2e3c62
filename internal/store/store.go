// Package store defines read access to the tables the generation backend
// writes: `videos` (one row per job) and `status` (its progress log).
package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/lzhlsy00/video-gen/internal/model"
)

// StatusStore reads job rows and their status history.
type StatusStore interface {
	// FindVideo returns the row whose public id is videoID, or a
	// model.ErrNotFound error when the backend has not created it yet.
	FindVideo(ctx context.Context, videoID string) (*model.Video, error)
	// ListStatus returns every status row of the video row videoUUID.
	ListStatus(ctx context.Context, videoUUID string) ([]model.StatusEntry, error)
	Close() error
}

// ParseStep reads a step value the backend may have written as a number,
// a numeric string, or not at all. Anything else yields nil.
func ParseStep(raw json.RawMessage) *int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

// ParseText returns raw as a string when it is a JSON string, "" otherwise.
func ParseText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// ParseTime accepts the timestamp shapes Postgres and SQLite emit. Unparseable
// input yields the zero time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
