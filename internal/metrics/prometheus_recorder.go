package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docpartials"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	partialResults *prom.CounterVec
	injections     *prom.CounterVec
	missingTargets prom.Counter
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual process-assets stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		partialResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "partial_results_total",
			Help:      "Partials executed and rendered, by result",
		}, []string{"result"}),
		injections: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "injections_total",
			Help:      "Fragments merged into documents, by location",
		}, []string{"location"}),
		missingTargets: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "missing_targets_total",
			Help:      "Target documents named by a partial that did not exist",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.partialResults, pr.injections, pr.missingTargets)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPartialResult(result ResultLabel) {
	if p == nil || p.partialResults == nil {
		return
	}
	p.partialResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncInjection(location string) {
	if p == nil || p.injections == nil {
		return
	}
	p.injections.WithLabelValues(location).Inc()
}

func (p *PrometheusRecorder) IncMissingTarget() {
	if p == nil || p.missingTargets == nil {
		return
	}
	p.missingTargets.Inc()
}
