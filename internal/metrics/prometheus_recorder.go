package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once                sync.Once
	collect             *prom.CounterVec
	materialize         *prom.CounterVec
	materializeDuration prom.Histogram
	renderDuration      prom.Histogram
	revisions           *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.collect = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "autopage",
			Name:      "collect_total",
			Help:      "createpage parser function calls by outcome",
		}, []string{"outcome"})
		pr.materialize = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "autopage",
			Name:      "materialize_pages_total",
			Help:      "Queued pages processed after save, by outcome",
		}, []string{"outcome"})
		pr.materializeDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "autopage",
			Name:      "materialize_duration_seconds",
			Help:      "Time spent creating queued pages for one saved revision",
			Buckets:   prom.DefBuckets,
		})
		pr.renderDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "autopage",
			Name:      "render_duration_seconds",
			Help:      "Wikitext expansion and rendering time per revision",
			Buckets:   prom.DefBuckets,
		})
		pr.revisions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "autopage",
			Name:      "revisions_saved_total",
			Help:      "Stored revisions, split by whether they created the page",
		}, []string{"kind"})
		reg.MustRegister(pr.collect, pr.materialize, pr.materializeDuration, pr.renderDuration, pr.revisions)
	})
	return pr
}

func (p *PrometheusRecorder) IncCollect(outcome CollectOutcome) {
	if p == nil || p.collect == nil {
		return
	}
	p.collect.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncMaterialize(outcome MaterializeOutcome) {
	if p == nil || p.materialize == nil {
		return
	}
	p.materialize.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveMaterializeDuration(d time.Duration) {
	if p == nil || p.materializeDuration == nil {
		return
	}
	p.materializeDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil || p.renderDuration == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRevisionSaved(newPage bool) {
	if p == nil || p.revisions == nil {
		return
	}
	kind := "edit"
	if newPage {
		kind = "create"
	}
	p.revisions.WithLabelValues(kind).Inc()
}
