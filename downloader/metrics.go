package downloader

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics are the download counters. A nil *Metrics records nothing.
type Metrics struct {
	Downloads     *prometheus.CounterVec
	BytesWritten  prometheus.Counter
	FetchDuration *prometheus.HistogramVec
	LandingPages  *prometheus.CounterVec
	FolderEntries *prometheus.CounterVec
}

// NewMetrics registers the download metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Downloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodle_downloads_total",
				Help: "Resources processed, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		BytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "moodle_download_bytes_total",
				Help: "Bytes written to storage",
			},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "moodle_fetch_duration_seconds",
				Help: "Time taken to fetch and store one resource",
			}, []string{"kind"},
		),
		LandingPages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodle_landing_pages_total",
				Help: "HTML landing pages met while fetching files",
			}, []string{"resolved"},
		), // label: "true" or "false"
		FolderEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodle_folder_entries_total",
				Help: "Files found in folder listings, by outcome",
			}, []string{"outcome"},
		),
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) observeDownload(kind string, ok bool, started time.Time) {
	if m == nil {
		return
	}
	m.Downloads.WithLabelValues(kind, outcome(ok)).Inc()
	m.FetchDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeBytes(n int) {
	if m == nil {
		return
	}
	m.BytesWritten.Add(float64(n))
}

func (m *Metrics) observeLandingPage(resolved bool) {
	if m == nil {
		return
	}
	if resolved {
		m.LandingPages.WithLabelValues("true").Inc()
	} else {
		m.LandingPages.WithLabelValues("false").Inc()
	}
}

func (m *Metrics) observeFolderEntry(ok bool) {
	if m == nil {
		return
	}
	m.FolderEntries.WithLabelValues(outcome(ok)).Inc()
}

// StartMetricsServer serves the default registry on addr until it fails.
func StartMetricsServer(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info().Msgf("Metrics server starting on %s", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server failed")
	}
}
