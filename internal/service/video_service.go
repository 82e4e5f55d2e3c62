package service

import (
	"context"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/auth"
	"github.com/lzhlsy00/video-gen/internal/client"
	"github.com/lzhlsy00/video-gen/internal/model"
)

// ExploreSize is how many videos the explore feed shows.
const ExploreSize = 8

// VideoService serves listings from the backend's video catalogue
type VideoService struct {
	backend client.GenerationBackend
	shuffle func(n int, swap func(i, j int))
	log     zerolog.Logger
}

func NewVideoService(backend client.GenerationBackend, log zerolog.Logger) *VideoService {
	return &VideoService{
		backend: backend,
		shuffle: rand.Shuffle,
		log:     log.With().Str("component", "videos").Logger(),
	}
}

// MyVideos lists the caller's videos. Anonymous callers are rejected.
func (s *VideoService) MyVideos(ctx context.Context, id auth.Identity) (*model.VideoListResponse, error) {
	if id.IsAnonymous() {
		return nil, model.Unauthorized("Please login to view your videos")
	}

	name := id.DisplayName()
	list, err := s.backend.ListUserVideos(ctx, name)
	if err != nil {
		s.log.Warn().Err(err).Str("user", name).Msg("failed to list user videos")
		return nil, err
	}

	list.UserName = name
	list.Count = len(list.Videos)
	if list.Videos == nil {
		list.Videos = []model.BackendVideo{}
	}
	return list, nil
}

// Video returns one of the caller's videos.
func (s *VideoService) Video(ctx context.Context, id auth.Identity, videoID string) (*model.VideoDetailResponse, error) {
	if videoID == "" {
		return nil, model.InvalidRequest("Video ID is required")
	}
	list, err := s.MyVideos(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, v := range list.Videos {
		if v.VideoID == videoID {
			return &model.VideoDetailResponse{Video: v, UserName: list.UserName}, nil
		}
	}
	return nil, model.NotFound("Video not found")
}

// Explore returns up to ExploreSize random videos that have a result.
func (s *VideoService) Explore(ctx context.Context) (*model.VideoListResponse, error) {
	list, err := s.backend.ListVideos(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to list videos")
		return nil, err
	}

	finished := make([]model.BackendVideo, 0, len(list.Videos))
	for _, v := range list.Videos {
		if v.HasResult() {
			finished = append(finished, v)
		}
	}

	s.shuffle(len(finished), func(i, j int) {
		finished[i], finished[j] = finished[j], finished[i]
	})
	if len(finished) > ExploreSize {
		finished = finished[:ExploreSize]
	}
	return &model.VideoListResponse{Videos: finished, Count: len(finished)}, nil
}
