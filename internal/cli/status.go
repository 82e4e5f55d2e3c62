package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <video-id|url>",
		Short: "Print the current status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseVideoID(args[0])
			if err != nil {
				return err
			}
			snap, err := opts.api.Poll(cmd.Context(), videoID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, progressLine(snap))
			switch {
			case snap.IsComplete && snap.VideoURL != nil:
				fmt.Fprintf(out, "complete: %s\n", *snap.VideoURL)
			case snap.Failed():
				fmt.Fprintf(out, "failed: %s\n", snap.Error)
			}
			for _, line := range snap.TerminalOutput {
				fmt.Fprintf(out, "  %s\n", line)
			}
			return nil
		},
	}
}
