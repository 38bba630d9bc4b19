package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for RunsTotal.
const (
	OutcomeSuccess         = "success"
	OutcomeSearchFailed    = "search_failed"
	OutcomeNoResults       = "no_results"
	OutcomeNoUsableContent = "no_usable_content"
	OutcomeSynthesisFailed = "synthesis_failed"
	OutcomeRejected        = "rejected"
)

// Recorder owns a private registry so several instances can coexist in tests.
type Recorder struct {
	Registry *prometheus.Registry

	RunsTotal        *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	FetchFailures    prometheus.Counter
	EmptyExtractions prometheus.Counter
	Fragments        prometheus.Histogram
	RunsActive       prometheus.Gauge
}

// New registers the answersynth collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		Registry: reg,
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "answersynth_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"outcome", "mode"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "answersynth_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		FetchFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "answersynth_fetch_failures_total",
			Help: "Total number of page fetches that failed",
		}),
		EmptyExtractions: f.NewCounter(prometheus.CounterOpts{
			Name: "answersynth_empty_extractions_total",
			Help: "Total number of fetched pages that yielded no text",
		}),
		Fragments: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "answersynth_fragments",
			Help:    "Number of content fragments sent to the model per run",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
		}),
		RunsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "answersynth_runs_active",
			Help: "Number of runs currently processing",
		}),
	}
}

// ObserveStage records how long a stage took. Nil receivers are no-ops.
func (r *Recorder) ObserveStage(stage string, started time.Time) {
	if r == nil {
		return
	}
	r.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// RunStarted marks a run as processing.
func (r *Recorder) RunStarted() {
	if r == nil {
		return
	}
	r.RunsActive.Inc()
}

// RunFinished counts a completed run and clears it from the active gauge.
func (r *Recorder) RunFinished(outcome, mode string) {
	if r == nil {
		return
	}
	r.RunsActive.Dec()
	r.RunsTotal.WithLabelValues(outcome, mode).Inc()
}

// Rejected counts a submission the shell turned away without running.
func (r *Recorder) Rejected(mode string) {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues(OutcomeRejected, mode).Inc()
}

func (r *Recorder) FetchFailed() {
	if r == nil {
		return
	}
	r.FetchFailures.Inc()
}

func (r *Recorder) EmptyExtraction() {
	if r == nil {
		return
	}
	r.EmptyExtractions.Inc()
}

// ObserveFragments records how many fragments reached the model.
func (r *Recorder) ObserveFragments(n int) {
	if r == nil {
		return
	}
	r.Fragments.Observe(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}
