package cmd

import (
	"os"
	"os/signal"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

func newCmdWatch() *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "watch [flags]",
		Short: "Keep the download tree in sync, re-running on an interval",
		Example: heredoc.Doc(`
			$ moodle-scraper watch --config moodle.yaml --every 6h
			$ moodle-scraper watch --config moodle.yaml --course 2 --every 30m --metrics-addr :9190
		`),
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt)
			defer stop()

			f, err := setup(ctx, c)
			if err != nil {
				return err
			}
			f.Logger.Info().Dur("every", every).Msg("Watching courses")
			return f.Orchestrator.Watch(ctx, opts.course, every)
		},
	}

	cmd.Flags().DurationVar(&every, "every", time.Hour, "Time between passes")
	addDownloadFlags(cmd)
	return cmd
}
