package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/cache"
	"github.com/lzhlsy00/video-gen/internal/lifecycle"
	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/statuslog"
	"github.com/lzhlsy00/video-gen/internal/store"
)

// StatusService answers "how far along is this job?"
type StatusService struct {
	store      store.StatusStore
	normalizer *statuslog.Normalizer
	cache      cache.SnapshotCache
	log        zerolog.Logger
}

// NewStatusService builds the poller. snapshots may be nil.
func NewStatusService(st store.StatusStore, n *statuslog.Normalizer, snapshots cache.SnapshotCache, log zerolog.Logger) *StatusService {
	return &StatusService{
		store:      st,
		normalizer: n,
		cache:      snapshots,
		log:        log.With().Str("component", "status").Logger(),
	}
}

// Poll returns the current snapshot of videoID. A job the backend has not
// created yet is reported as initializing rather than missing.
func (s *StatusService) Poll(ctx context.Context, videoID, locale string) (*model.StatusSnapshot, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, model.InvalidRequest("Video ID is required")
	}

	if s.cache != nil {
		if snap, ok := s.cache.Get(ctx, videoID, locale); ok {
			return snap, nil
		}
	}

	video, err := s.store.FindVideo(ctx, videoID)
	if errors.Is(err, model.ErrNotFound) {
		return s.normalizer.Initializing(videoID, locale), nil
	}
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListStatus(ctx, video.ID)
	if err != nil {
		return nil, err
	}

	snap := s.normalizer.Normalize(video, entries, locale)
	snap.VideoID = videoID
	// Failed is not cached: a result URL that shows up later still wins.
	if s.cache != nil && snap.IsComplete {
		s.cache.Put(ctx, snap, locale)
	}
	return snap, nil
}

// Poller binds Poll to one locale for the lifecycle loop.
func (s *StatusService) Poller(locale string) lifecycle.PollFunc {
	return func(ctx context.Context, videoID string) (*model.StatusSnapshot, error) {
		return s.Poll(ctx, videoID, locale)
	}
}

// Lookup is the direct lookup behind the result view. Unlike Poll, an
// unknown job is NotFound. A job without a result redirects back to its
// progress view.
func (s *StatusService) Lookup(ctx context.Context, videoID string) (*model.ResultView, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, model.InvalidRequest("Video ID is required")
	}

	video, err := s.store.FindVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	view := &model.ResultView{VideoID: videoID}
	if video.HasResult() {
		view.Ready = true
		view.VideoURL = *video.VideoURL
		return view, nil
	}
	view.Redirect = ProgressPath(videoID)
	return view, nil
}

// ProgressPath is the progress view of videoID.
func ProgressPath(videoID string) string {
	return "/video/" + url.PathEscape(videoID)
}

// ResultPath is the result view of videoID.
func ResultPath(videoID string) string {
	return ProgressPath(videoID) + "/complete"
}
