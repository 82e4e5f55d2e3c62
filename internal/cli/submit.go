package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lzhlsy00/video-gen/internal/lifecycle"
	"github.com/lzhlsy00/video-gen/internal/model"
)

func newSubmitCommand(opts *options) *cobra.Command {
	var (
		resolution string
		voice      string
		language   string
		syncMethod string
		noAudio    bool
		watch      bool
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit [prompt]",
		Short: "Submit a generation job",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &model.GenerateRequest{
				Prompt:     strings.Join(args, " "),
				Resolution: model.Resolution(resolution),
				Voice:      model.Voice(voice),
				Language:   model.Language(language),
				SyncMethod: model.SyncMethod(syncMethod),
			}
			if noAudio {
				includeAudio := false
				req.IncludeAudio = &includeAudio
			}

			resp, _, err := lifecycle.Submit(cmd.Context(), opts.api, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "submitted %s", resp.VideoID)
			if resp.EstimatedSeconds > 0 {
				fmt.Fprintf(out, " (about %ds)", resp.EstimatedSeconds)
			}
			fmt.Fprintln(out)

			if !watch {
				return nil
			}
			return follow(cmd, opts, resp.VideoID, interval)
		},
	}

	cmd.Flags().StringVar(&resolution, "resolution", "", "Resolution: l, m, h, p or k (default m)")
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice (default nova)")
	cmd.Flags().StringVar(&language, "language", "", "Narration language tag (default en)")
	cmd.Flags().StringVar(&syncMethod, "sync-method", "", "Audio sync method")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Render without narration")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow the job until it finishes")
	cmd.Flags().DurationVar(&interval, "interval", lifecycle.DefaultInterval, "Polling interval when watching")
	return cmd
}
