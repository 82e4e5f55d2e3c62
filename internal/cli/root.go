// Package cli implements videogenctl, a command-line client for the
// generation API.
package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lzhlsy00/video-gen/internal/client"
)

type options struct {
	apiURL  string
	token   string
	locale  string
	timeout time.Duration

	api *client.APIClient
}

// NewRootCommand builds the videogenctl command tree. Flags fall back to
// VIDEOGEN_* environment variables.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	v := viper.New()
	v.SetEnvPrefix("videogen")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "videogenctl",
		Short:         "Submit and follow prompt-to-video generation jobs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.api != nil {
				return nil
			}
			if opts.apiURL == "" {
				opts.apiURL = v.GetString("api_url")
			}
			if opts.apiURL == "" {
				opts.apiURL = "http://localhost:3000"
			}
			if opts.token == "" {
				opts.token = v.GetString("token")
			}
			opts.api = client.NewAPIClient(opts.apiURL, opts.token, opts.locale, opts.timeout)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.apiURL, "api", "", "API base URL (default $VIDEOGEN_API_URL or http://localhost:3000)")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "Bearer token (default $VIDEOGEN_TOKEN)")
	root.PersistentFlags().StringVar(&opts.locale, "lang", "", "Preferred language for status messages (en, zh)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request timeout")

	root.AddCommand(
		newSubmitCommand(opts),
		newWatchCommand(opts),
		newStatusCommand(opts),
		newVideosCommand(opts),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// parseVideoID accepts a bare job id or a progress/result view URL such as
// https://host/video/<id>/complete.
func parseVideoID(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("video id is required")
	}
	if !strings.Contains(arg, "/") {
		return arg, nil
	}

	path := arg
	if u, err := url.Parse(arg); err == nil && u.Path != "" {
		path = u.Path
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if seg == "video" && i+1 < len(segments) && segments[i+1] != "" {
			id, err := url.PathUnescape(segments[i+1])
			if err != nil {
				return "", fmt.Errorf("invalid video id in %q: %w", arg, err)
			}
			return id, nil
		}
	}
	return "", fmt.Errorf("no video id in %q", arg)
}
