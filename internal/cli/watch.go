package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lzhlsy00/video-gen/internal/lifecycle"
	"github.com/lzhlsy00/video-gen/internal/model"
)

func newWatchCommand(opts *options) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <video-id|url>",
		Short: "Follow a job until it completes or fails",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseVideoID(args[0])
			if err != nil {
				return err
			}

			view, state, err := lifecycle.Resolve(cmd.Context(), opts.api, videoID)
			switch {
			case errors.Is(err, model.ErrNotFound):
				// Not materialized yet; polling reports it as initializing.
			case err != nil:
				return err
			case state == lifecycle.Complete:
				fmt.Fprintf(cmd.OutOrStdout(), "complete: %s\n", view.VideoURL)
				return nil
			}
			return follow(cmd, opts, videoID, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", lifecycle.DefaultInterval, "Polling interval")
	return cmd
}

// follow polls videoID until a terminal state, printing each change of
// status line.
func follow(cmd *cobra.Command, opts *options, videoID string, interval time.Duration) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	last := ""

	h := lifecycle.Start(cmd.Context(), opts.api, videoID, lifecycle.Options{
		Interval:       interval,
		RequestTimeout: opts.timeout,
		OnUpdate: func(snap *model.StatusSnapshot) {
			line := progressLine(snap)
			if line != last {
				fmt.Fprintln(out, line)
				last = line
			}
		},
		OnComplete: func(snap *model.StatusSnapshot) {
			url := ""
			if snap.VideoURL != nil {
				url = *snap.VideoURL
			}
			fmt.Fprintf(out, "complete: %s\n", url)
		},
		OnFailed: func(snap *model.StatusSnapshot) {
			fmt.Fprintf(out, "failed: %s\n", snap.Error)
		},
		OnError: func(err error) {
			fmt.Fprintf(errOut, "poll error (retrying): %v\n", err)
		},
	})
	defer h.Stop()

	outcome, err := h.Wait(cmd.Context())
	if err != nil {
		return err
	}
	switch outcome.State {
	case lifecycle.Complete:
		return nil
	case lifecycle.Failed:
		return fmt.Errorf("video %s failed", videoID)
	default:
		return outcome.Err
	}
}

func progressLine(snap *model.StatusSnapshot) string {
	if snap.CurrentStep != nil && snap.TotalSteps != nil {
		return fmt.Sprintf("[%d/%d] %s", *snap.CurrentStep, *snap.TotalSteps, snap.BuildStatus)
	}
	return snap.BuildStatus
}
