package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"moodle-scraper/config"
	"moodle-scraper/orchestrator"
)

type options struct {
	configFile string
	debug      bool
	pretty     bool
	course     int

	// flag values, copied onto the config only when set
	values config.Config
}

var opts options

// flagSetter copies explicitly set flags onto a Config.
type flagSetter struct {
	cmd *cobra.Command
}

func (f flagSetter) apply(cfg *config.Config) {
	v := opts.values
	set := map[string]func(){
		"base-url":     func() { cfg.BaseURL = v.BaseURL },
		"sesskey":      func() { cfg.SessKey = v.SessKey },
		"cookie":       func() { cfg.Cookie = v.Cookie },
		"user-id":      func() { cfg.UserID = v.UserID },
		"limit":        func() { cfg.CourseLimit = v.CourseLimit },
		"output":       func() { cfg.OutputDir = v.OutputDir },
		"workers":      func() { cfg.Workers = v.Workers },
		"timeout":      func() { cfg.TimeoutSeconds = v.TimeoutSeconds },
		"insecure":     func() { cfg.InsecureSkipVerify = v.InsecureSkipVerify },
		"calendar":     func() { cfg.Calendar = v.Calendar },
		"progress":     func() { cfg.Progress = v.Progress },
		"metrics-addr": func() { cfg.MetricsAddr = v.MetricsAddr },
		"s3-endpoint":  func() { cfg.S3Endpoint = v.S3Endpoint },
		"s3-bucket":    func() { cfg.S3Bucket = v.S3Bucket },
		"s3-region":    func() { cfg.S3Region = v.S3Region },
		"s3-user":      func() { cfg.S3User = v.S3User },
		"s3-password":  func() { cfg.S3Password = v.S3Password },
	}
	for name, apply := range set {
		if f.cmd.Flags().Changed(name) {
			apply()
		}
	}
}

func newCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moodle-scraper [flags]",
		Short: "Download course files from Moodle",
		Long: heredoc.Doc(`
			Download the files and folders of your recent Moodle courses into
			<output>/<course>/<section>/, reusing a browser session.
		`),
		Example: heredoc.Doc(`
			$ moodle-scraper --config moodle.yaml
			$ moodle-scraper --base-url https://moodle.example.edu --sesskey abc123 --cookie 0123abcd --user-id 42 --course 0
			$ MOODLE_COOKIE=0123abcd moodle-scraper --config moodle.json --calendar --progress
		`),
		Annotations: map[string]string{
			"versionInfo": "1.0",
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt)
			defer stop()

			f, err := setup(ctx, c)
			if err != nil {
				return err
			}

			courses := f.Orchestrator.ListCourses(ctx)
			if len(courses) == 0 {
				f.Logger.Error().Msg("No courses found through any method")
				return orchestrator.ErrNoCourses
			}

			choice := opts.course
			if !c.Flags().Changed("course") {
				choice, err = orchestrator.Prompt(os.Stdin, c.OutOrStdout(), courses)
				if err != nil {
					f.Logger.Error().Err(err).Msg("Invalid input. Please enter a valid number.")
					return err
				}
			}

			summary, err := f.Orchestrator.Download(ctx, courses, choice)
			if err != nil {
				return err
			}
			f.Logger.Info().
				Int("total", summary.Total).
				Int("succeeded", summary.Succeeded).
				Int("failed", len(summary.Failed)).
				Msg("Run complete")
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to a JSON or YAML config file")
	cmd.PersistentFlags().StringVar(&opts.values.BaseURL, "base-url", "", "Moodle base URL")
	cmd.PersistentFlags().StringVar(&opts.values.SessKey, "sesskey", "", "Session security key")
	cmd.PersistentFlags().StringVar(&opts.values.Cookie, "cookie", "", "Value of the MoodleSession cookie")
	cmd.PersistentFlags().IntVar(&opts.values.UserID, "user-id", 0, "Numeric Moodle user id")
	cmd.PersistentFlags().IntVar(&opts.values.CourseLimit, "limit", config.DefaultCourseLimit, "Number of recent courses to list")
	cmd.PersistentFlags().IntVar(&opts.values.TimeoutSeconds, "timeout", 0, "HTTP timeout in seconds, 0 for none")
	cmd.PersistentFlags().BoolVar(&opts.values.InsecureSkipVerify, "insecure", false, "Skip TLS certificate verification")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human readable console logs")

	addDownloadFlags(cmd)

	cmd.AddCommand(newCmdCourses())
	cmd.AddCommand(newCmdWatch())
	return cmd
}

func newCmdCourses() *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List your recent courses",
		Example: heredoc.Doc(`
			$ moodle-scraper courses --config moodle.yaml
		`),
		SilenceUsage: true,
		RunE: func(c *cobra.Command, args []string) error {
			f, err := setup(c.Context(), c)
			if err != nil {
				return err
			}

			courses := f.Orchestrator.ListCourses(c.Context())
			if len(courses) == 0 {
				return orchestrator.ErrNoCourses
			}
			orchestrator.PrintCourses(c.OutOrStdout(), courses)
			return nil
		},
	}
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&opts.course, "course", 0, "Course to download: its menu number, or 0 for all. Prompts when unset")
	cmd.Flags().StringVar(&opts.values.OutputDir, "output", config.DefaultOutputDir, "Output directory")
	cmd.Flags().IntVar(&opts.values.Workers, "workers", config.DefaultWorkers, "Number of concurrent downloads")
	cmd.Flags().BoolVar(&opts.values.Calendar, "calendar", false, "Export each course's events to calendar.ics")
	cmd.Flags().BoolVar(&opts.values.Progress, "progress", false, "Show a progress bar on stderr")
	cmd.Flags().StringVar(&opts.values.MetricsAddr, "metrics-addr", "", "Address for the Prometheus metrics server, e.g. :9190")

	// S3 / MinIO mirror
	cmd.Flags().StringVar(&opts.values.S3Endpoint, "s3-endpoint", "", "S3 or MinIO endpoint, e.g. http://localhost:9000")
	cmd.Flags().StringVar(&opts.values.S3Bucket, "s3-bucket", "", "Bucket to mirror downloads to; mirroring is off when empty")
	cmd.Flags().StringVar(&opts.values.S3Region, "s3-region", config.DefaultS3Region, "S3 region")
	cmd.Flags().StringVar(&opts.values.S3User, "s3-user", "", "S3 access key")
	cmd.Flags().StringVar(&opts.values.S3Password, "s3-password", "", "S3 secret key")
}

func setup(ctx context.Context, c *cobra.Command) (*factory, error) {
	cfg, err := loadConfig(flagSetter{cmd: c})
	if err != nil {
		return nil, err
	}
	return newFactory(ctx, cfg, registerer, c.ErrOrStderr())
}

var (
	cmdRoot = newCmdRoot()

	registerer prometheus.Registerer = prometheus.DefaultRegisterer
)

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := cmdRoot.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}
