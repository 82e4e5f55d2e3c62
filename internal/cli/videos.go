package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lzhlsy00/video-gen/internal/model"
)

func newVideosCommand(opts *options) *cobra.Command {
	var explore bool

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List your videos, or a random sample of finished ones with --explore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				list *model.VideoListResponse
				err  error
			)
			if explore {
				list, err = opts.api.Explore(cmd.Context())
			} else {
				list, err = opts.api.MyVideos(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VIDEO ID\tSTATUS\tURL\tPROMPT")
			for _, v := range list.Videos {
				url := "-"
				if v.HasResult() {
					url = *v.VideoURL
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.VideoID, v.Status, url, v.Prompt)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&explore, "explore", false, "Show random finished videos instead of your own")
	return cmd
}
