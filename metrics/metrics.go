// Package metrics exports session counters and timings for Prometheus.
package metrics

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hark/orchestrator"
)

type Metrics struct {
	Registry *prometheus.Registry

	Sessions        *prometheus.CounterVec
	Recording       *prometheus.GaugeVec
	SessionDuration *prometheus.HistogramVec
	AudioBytes      prometheus.Histogram
	Words           *prometheus.HistogramVec
	StatusChanges   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hark_sessions_total",
			Help: "Finished sessions by mode and outcome",
		}, []string{"mode", "outcome"}),
		Recording: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hark_recording",
			Help: "1 while a session of the mode is capturing audio",
		}, []string{"mode"}),
		SessionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hark_recording_duration_seconds",
			Help:    "Length of captured recordings",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9), // 0.5s to ~2 minutes
		}, []string{"mode"}),
		AudioBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hark_audio_bytes",
			Help:    "PCM bytes captured per session",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KB to 16MB
		}),
		Words: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hark_transcript_words",
			Help:    "Words per transcript before and after sanitizing",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"stage"}),
		StatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hark_status_changes_total",
			Help: "Published status transitions",
		}, []string{"mode", "status"}),
	}
}

func (m *Metrics) StatusChanged(mode orchestrator.Mode, st orchestrator.Status) {
	m.StatusChanges.WithLabelValues(mode.String(), st.String()).Inc()
	if st == orchestrator.Recording {
		m.Recording.WithLabelValues(mode.String()).Set(1)
	} else {
		m.Recording.WithLabelValues(mode.String()).Set(0)
	}
}

func (m *Metrics) SessionUsage(u orchestrator.Usage) {
	mode := u.Mode.String()
	m.Sessions.WithLabelValues(mode, u.Outcome).Inc()
	if u.Outcome == orchestrator.OutcomeStartFailed {
		return
	}
	m.SessionDuration.WithLabelValues(mode).Observe(u.Duration.Seconds())
	m.AudioBytes.Observe(float64(u.AudioBytes))
	m.Words.WithLabelValues("raw").Observe(float64(u.OriginalWords))
	m.Words.WithLabelValues("clean").Observe(float64(u.CleanedWords))
}

// Handler serves /metrics and the pprof endpoints under /debug/pprof/.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
