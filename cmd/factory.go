package cmd

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"moodle-scraper/config"
	"moodle-scraper/downloader"
	"moodle-scraper/moodle"
	"moodle-scraper/orchestrator"
	"moodle-scraper/uploader"
)

const serviceName = "moodle-scraper"

// factory wires the components of one run from a validated Config.
type factory struct {
	RunID        string
	Logger       zerolog.Logger
	Session      *moodle.Session
	Storage      uploader.Storage
	Metrics      *downloader.Metrics
	Orchestrator *orchestrator.Orchestrator
}

func newFactory(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, progress io.Writer) (*factory, error) {
	f := &factory{RunID: uuid.NewString()}
	f.Logger = config.InitLogger(serviceName, f.RunID, opts.debug, opts.pretty)

	session, err := moodle.NewSession(cfg.BaseURL, cfg.SessKey, cfg.Cookie, moodle.Options{
		Timeout:            time.Duration(cfg.TimeoutSeconds) * time.Second,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Logger:             f.Logger,
	})
	if err != nil {
		return nil, err
	}
	f.Session = session

	storage, err := newStorage(ctx, cfg, f.Logger)
	if err != nil {
		return nil, err
	}
	f.Storage = storage

	f.Metrics = downloader.NewMetrics(reg)
	if cfg.MetricsAddr != "" {
		go downloader.StartMetricsServer(cfg.MetricsAddr, f.Logger)
	}

	if !cfg.Progress {
		progress = nil
	}
	fetcher := downloader.NewFetcher(session, storage, f.Metrics, f.Logger)
	scheduler := downloader.NewScheduler(fetcher, cfg.Workers, progress, f.Logger)

	f.Orchestrator = orchestrator.New(session, storage, scheduler, orchestrator.Options{
		UserID:      cfg.UserID,
		CourseLimit: cfg.CourseLimit,
		Calendar:    cfg.Calendar,
	}, f.Logger)
	return f, nil
}

func newStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (uploader.Storage, error) {
	local := uploader.NewLocalStorage(cfg.OutputDir)
	if !cfg.MirrorEnabled() {
		return local, nil
	}

	mirror, err := uploader.NewS3Storage(ctx, uploader.S3Options{
		Bucket:   cfg.S3Bucket,
		Endpoint: cfg.S3Endpoint,
		Region:   cfg.S3Region,
		User:     cfg.S3User,
		Password: cfg.S3Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "initializing s3 mirror")
	}
	logger.Info().Str("bucket", cfg.S3Bucket).Msg("Mirroring downloads to S3")
	return uploader.NewTee(logger, local, mirror), nil
}

// loadConfig layers the config file, the environment and the flags that
// were set explicitly, then validates the result.
func loadConfig(flags flagSetter) (*config.Config, error) {
	cfg := config.New()
	if opts.configFile != "" {
		loaded, err := config.LoadConfig(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	flags.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
