package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fenrirsec/rotauth"
	"github.com/fenrirsec/rotauth/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() rotauth.MetricsSnapshot
	AuditDropped() uint64
}

// Collector exposes rotauth engine counters as Prometheus metrics. Each
// scrape reads a fresh snapshot; the collector itself holds no state.
type Collector struct {
	source  metricsSource
	descs   []*prometheus.Desc
	dropped *prometheus.Desc
}

// NewCollector returns a Prometheus collector reading from engine.
func NewCollector(engine *rotauth.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource returns a collector backed by a custom snapshot
// source, e.g. a test fake.
func NewCollectorFromSource(source metricsSource) *Collector {
	descs := make([]*prometheus.Desc, len(internaldefs.CounterDefs))
	for i, def := range internaldefs.CounterDefs {
		descs[i] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	return &Collector{
		source:  source,
		descs:   descs,
		dropped: prometheus.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
	ch <- c.dropped
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()
	for i, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(c.descs[i], prometheus.CounterValue, float64(snapshot.Value(def.ID)))
	}
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.source.AuditDropped()))
}

// Handler registers the collector in a private registry and returns a scrape
// endpoint for it.
func Handler(engine *rotauth.Engine) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewCollector(engine))
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
