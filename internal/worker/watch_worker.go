package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/lifecycle"
	"github.com/lzhlsy00/video-gen/internal/model"
	"github.com/lzhlsy00/video-gen/internal/service"
)

// CodeJobFailed is the WebSocket error code of a job-level failure
const CodeJobFailed = "JOB_FAILED"

// Broadcaster receives lifecycle events for subscribers
type Broadcaster interface {
	BroadcastProgress(videoID string, snap *model.StatusSnapshot)
	BroadcastComplete(videoID, videoURL, redirect string)
	BroadcastError(videoID, code, message string)
}

// PollerFactory binds the status poller to a locale
type PollerFactory interface {
	Poller(locale string) lifecycle.PollFunc
}

// WatchWorker runs the job lifecycle server-side and pushes every
// transition to WebSocket subscribers
type WatchWorker struct {
	status   PollerFactory
	hub      Broadcaster
	interval time.Duration
	timeout  time.Duration
	maxWatch time.Duration
	log      zerolog.Logger
}

// NewWatchWorker creates a new watch worker
func NewWatchWorker(status PollerFactory, hub Broadcaster, interval, requestTimeout, maxWatch time.Duration, log zerolog.Logger) *WatchWorker {
	return &WatchWorker{
		status:   status,
		hub:      hub,
		interval: interval,
		timeout:  requestTimeout,
		maxWatch: maxWatch,
		log:      log.With().Str("component", "watch_worker").Logger(),
	}
}

// ProcessTask handles video:watch tasks
func (w *WatchWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.WatchJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal watch payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.VideoID == "" {
		return fmt.Errorf("watch payload has no video id: %w", asynq.SkipRetry)
	}

	log := w.log.With().Str("video_id", payload.VideoID).Logger()
	log.Info().Msg("watch started")

	h := lifecycle.Start(ctx, w.status.Poller(payload.Locale), payload.VideoID, lifecycle.Options{
		Interval:       w.interval,
		RequestTimeout: w.timeout,
		MaxDuration:    w.maxWatch,
		Logger:         log,
		OnUpdate: func(snap *model.StatusSnapshot) {
			w.hub.BroadcastProgress(payload.VideoID, snap)
		},
		OnComplete: func(snap *model.StatusSnapshot) {
			videoURL := ""
			if snap.VideoURL != nil {
				videoURL = *snap.VideoURL
			}
			w.hub.BroadcastComplete(payload.VideoID, videoURL, service.ResultPath(payload.VideoID))
		},
		OnFailed: func(snap *model.StatusSnapshot) {
			w.hub.BroadcastError(payload.VideoID, CodeJobFailed, snap.Error)
		},
	})

	<-h.Done()
	out := h.Outcome()

	switch {
	case out.State == lifecycle.Complete, out.State == lifecycle.Failed:
		log.Info().Str("state", out.State.String()).Msg("watch finished")
		return nil
	case errors.Is(out.Err, context.DeadlineExceeded) && ctx.Err() == nil:
		log.Warn().Dur("max_watch", w.maxWatch).Msg("watch gave up before the job finished")
		return nil
	default:
		return fmt.Errorf("watch interrupted: %w", out.Err)
	}
}
