package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lzhlsy00/video-gen/internal/model"
)

const (
	DefaultInterval       = 2 * time.Second
	DefaultRequestTimeout = 15 * time.Second
)

// Poller fetches the current snapshot of a job.
type Poller interface {
	Poll(ctx context.Context, jobID string) (*model.StatusSnapshot, error)
}

// PollFunc adapts a function to Poller.
type PollFunc func(ctx context.Context, jobID string) (*model.StatusSnapshot, error)

func (f PollFunc) Poll(ctx context.Context, jobID string) (*model.StatusSnapshot, error) {
	return f(ctx, jobID)
}

// Options configures a watch. Callbacks run on the watch goroutine, one at a
// time, and must not call Handle.Stop.
type Options struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	// MaxDuration ends an unfinished watch; zero means no limit.
	MaxDuration time.Duration

	// OnUpdate receives every snapshot that leaves the job in Polling.
	OnUpdate func(*model.StatusSnapshot)
	// OnComplete and OnFailed fire once, after polling has stopped.
	OnComplete func(*model.StatusSnapshot)
	OnFailed   func(*model.StatusSnapshot)
	// OnError receives poll errors. They never end the watch.
	OnError func(error)

	Logger zerolog.Logger
}

// Outcome is how a watch ended.
type Outcome struct {
	JobID    string
	State    State
	Snapshot *model.StatusSnapshot
	// Err is set when the watch ended before a terminal state: Stop, a
	// cancelled parent context, or MaxDuration.
	Err error
}

// ErrStopped is the Outcome error of a watch ended by Handle.Stop.
var ErrStopped = errors.New("watch stopped")

// Handle owns one running watch.
type Handle struct {
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}

	// mu serializes callbacks with Stop.
	mu      sync.Mutex
	stopped bool

	latest  *model.StatusSnapshot
	outcome Outcome
}

// Start polls jobID immediately and then every Interval until the job
// completes or fails, the context ends, or Stop is called.
func Start(ctx context.Context, p Poller, jobID string, opts Options) *Handle {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	var cancel context.CancelFunc
	if opts.MaxDuration > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.MaxDuration)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	h := &Handle{
		jobID:   jobID,
		cancel:  cancel,
		done:    make(chan struct{}),
		outcome: Outcome{JobID: jobID, State: Polling},
	}
	go h.run(ctx, p, opts)
	return h
}

// Stop ends the watch. Once Stop returns no callback will run, even if a
// poll was in flight.
func (h *Handle) Stop() {
	h.cancel()
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
}

// Done is closed when the watch goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the watch ends or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.Outcome(), nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Outcome returns the final result. Before Done is closed it reports the
// watch as still Polling.
func (h *Handle) Outcome() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome
}

// Latest returns the most recent snapshot, which survives poll errors.
func (h *Handle) Latest() *model.StatusSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

func (h *Handle) run(ctx context.Context, p Poller, opts Options) {
	defer close(h.done)
	defer h.cancel()

	log := opts.Logger.With().Str("video_id", h.jobID).Logger()
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		snap, err := h.poll(ctx, p, opts.RequestTimeout)
		if ctx.Err() != nil {
			h.finish(ctx.Err())
			return
		}

		if err != nil {
			log.Warn().Err(err).Msg("status poll failed, retrying")
			h.deliver(func() {
				if opts.OnError != nil {
					opts.OnError(err)
				}
			})
		} else {
			switch Next(Polling, snap) {
			case Complete:
				ticker.Stop()
				h.terminate(Complete, snap, opts.OnComplete)
				return
			case Failed:
				ticker.Stop()
				h.terminate(Failed, snap, opts.OnFailed)
				return
			default:
				h.deliver(func() {
					h.latest = snap
					if opts.OnUpdate != nil {
						opts.OnUpdate(snap)
					}
				})
			}
		}

		select {
		case <-ctx.Done():
			h.finish(ctx.Err())
			return
		case <-ticker.C:
		}
	}
}

func (h *Handle) poll(ctx context.Context, p Poller, timeout time.Duration) (*model.StatusSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Poll(ctx, h.jobID)
}

// deliver runs fn unless the handle has been stopped.
func (h *Handle) deliver(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	fn()
}

func (h *Handle) terminate(state State, snap *model.StatusSnapshot, cb func(*model.StatusSnapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		h.outcome = Outcome{JobID: h.jobID, State: Polling, Snapshot: h.latest, Err: ErrStopped}
		return
	}
	h.latest = snap
	h.outcome = Outcome{JobID: h.jobID, State: state, Snapshot: snap}
	if cb != nil {
		cb(snap)
	}
}

func (h *Handle) finish(cause error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		cause = ErrStopped
	}
	h.outcome = Outcome{JobID: h.jobID, State: Polling, Snapshot: h.latest, Err: cause}
}
