// Package rest reads the status tables through the hosted PostgREST API.
package rest

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/store"
)

// Selecter is the PostgREST read the store needs; *client.SupabaseClient implements it.
type Selecter interface {
	Select(ctx context.Context, table string, query url.Values, result interface{}) error
}

// Store implements store.StatusStore over PostgREST.
type Store struct {
	api Selecter
}

var _ store.StatusStore = (*Store)(nil)

func New(api Selecter) *Store {
	return &Store{api: api}
}

type videoRow struct {
	ID        json.RawMessage `json:"id"`
	VideoID   string          `json:"video_id"`
	VideoURL  *string         `json:"video_url"`
	CreatedAt string          `json:"created_at"`
}

// Columns are decoded loosely so one odd row cannot fail the whole poll.
type statusRow struct {
	ID          json.RawMessage `json:"id"`
	VideoUUID   json.RawMessage `json:"video_uuid"`
	Step        json.RawMessage `json:"step"`
	BuildStatus json.RawMessage `json:"build_status"`
	CreatedAt   json.RawMessage `json:"created_at"`
}

func (s *Store) FindVideo(ctx context.Context, videoID string) (*model.Video, error) {
	q := url.Values{}
	q.Set("select", "id,video_id,video_url,created_at")
	q.Set("video_id", "eq."+videoID)
	q.Set("limit", "1")

	var rows []videoRow
	if err := s.api.Select(ctx, "videos", q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, model.NotFound("video not found")
	}

	r := rows[0]
	return &model.Video{
		ID:        rawID(r.ID),
		VideoID:   r.VideoID,
		VideoURL:  r.VideoURL,
		CreatedAt: store.ParseTime(r.CreatedAt),
	}, nil
}

func (s *Store) ListStatus(ctx context.Context, videoUUID string) ([]model.StatusEntry, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("video_uuid", "eq."+videoUUID)
	q.Set("order", "step.asc")

	var rows []statusRow
	if err := s.api.Select(ctx, "status", q, &rows); err != nil {
		return nil, err
	}

	entries := make([]model.StatusEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.StatusEntry{
			ID:          rawID(r.ID),
			VideoUUID:   rawID(r.VideoUUID),
			Step:        store.ParseStep(r.Step),
			BuildStatus: store.ParseText(r.BuildStatus),
			CreatedAt:   store.ParseTime(store.ParseText(r.CreatedAt)),
		})
	}
	return entries, nil
}

func (s *Store) Close() error { return nil }

// rawID renders a string or numeric id as text.
func rawID(raw json.RawMessage) string {
	if s := store.ParseText(raw); s != "" {
		return s
	}
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return string(raw)
}
