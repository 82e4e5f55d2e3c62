// Package lifecycle drives a generation job from submission to its terminal
// state: Submitting → Polling → {Complete, Failed}.
package lifecycle

import (
	"context"

	"github.com/lzhlsy00/video-gen/internal/model"
)

// State of a job as seen by one watcher.
type State int

const (
	Submitting State = iota
	Polling
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Submitting:
		return "submitting"
	case Polling:
		return "polling"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Complete || s == Failed
}

// Next applies one snapshot to state s. Only Polling moves; a snapshot that
// is both complete and errored counts as complete because a result URL is
// authoritative.
func Next(s State, snap *model.StatusSnapshot) State {
	if s != Polling || snap == nil {
		return s
	}
	switch {
	case snap.IsComplete:
		return Complete
	case snap.Failed():
		return Failed
	default:
		return Polling
	}
}

// Submitter sends a generation request to the backend.
type Submitter interface {
	Submit(ctx context.Context, req *model.GenerateRequest) (*model.GenerateResponse, error)
}

// Submit performs the Submitting transition. Any error leaves the job in
// Failed; there is no automatic resubmission.
func Submit(ctx context.Context, s Submitter, req *model.GenerateRequest) (*model.GenerateResponse, State, error) {
	resp, err := s.Submit(ctx, req)
	if err != nil {
		return nil, Failed, err
	}
	return resp, Polling, nil
}

// Lookuper performs the direct lookup of a job.
type Lookuper interface {
	Lookup(ctx context.Context, jobID string) (*model.ResultView, error)
}

// Resolve is the entry point for a job that may already be finished. A job
// with a result routes straight to Complete and is never polled again;
// anything else belongs to the polling loop. Unknown jobs surface NotFound.
func Resolve(ctx context.Context, l Lookuper, jobID string) (*model.ResultView, State, error) {
	view, err := l.Lookup(ctx, jobID)
	if err != nil {
		return nil, Polling, err
	}
	if view.Ready {
		return view, Complete, nil
	}
	return view, Polling, nil
}
