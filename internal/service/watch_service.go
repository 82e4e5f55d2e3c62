package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/model"
)

const (
	TaskTypeWatch = "video:watch"
	QueueWatch    = "watch"
)

// Enqueuer is the part of *asynq.Client used to schedule watches
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// WatchService schedules server-side lifecycle watches. At most one watch
// per video is queued or running at a time.
type WatchService struct {
	enqueuer Enqueuer
	maxWatch time.Duration
	log      zerolog.Logger
}

func NewWatchService(enqueuer Enqueuer, maxWatch time.Duration, log zerolog.Logger) *WatchService {
	return &WatchService{
		enqueuer: enqueuer,
		maxWatch: maxWatch,
		log:      log.With().Str("component", "watch").Logger(),
	}
}

// WatchTaskID is the asynq task id that deduplicates watches of videoID.
func WatchTaskID(videoID string) string {
	return "watch:" + videoID
}

// NewWatchTask builds the asynq task for a watch
func NewWatchTask(videoID, locale string, startedAt time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(model.WatchJobPayload{VideoID: videoID, Locale: locale, StartedAt: startedAt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TaskTypeWatch, payload), nil
}

// Watch queues a watch of videoID unless one already exists.
func (s *WatchService) Watch(ctx context.Context, videoID, locale string) error {
	task, err := NewWatchTask(videoID, locale, time.Now())
	if err != nil {
		return err
	}

	_, err = s.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(QueueWatch),
		asynq.TaskID(WatchTaskID(videoID)),
		asynq.MaxRetry(0),
		asynq.Timeout(s.maxWatch+time.Minute),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		s.log.Debug().Str("video_id", videoID).Msg("watch already scheduled")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue watch: %w", err)
	}
	s.log.Info().Str("video_id", videoID).Msg("watch scheduled")
	return nil
}
