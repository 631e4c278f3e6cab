package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusSink publishes pipeline counts as Prometheus metrics. All
// metrics share the flightetl namespace and a single "name" label carrying
// the pipeline metric name, so new counts need no registration changes.
type PrometheusSink struct {
	counters  *prometheus.CounterVec
	gauges    *prometheus.GaugeVec
	durations *prometheus.HistogramVec
}

// NewPrometheusSink registers the sink's collectors with reg, or the default
// registerer when reg is nil.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		counters: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flightetl",
			Name:      "events_total",
			Help:      "Pipeline event counts",
		}, []string{"name", "label"}),
		gauges: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "flightetl",
			Name:      "state",
			Help:      "Pipeline state gauges",
		}, []string{"name", "label"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flightetl",
			Name:      "duration_seconds",
			Help:      "Pipeline operation durations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"name", "label"}),
	}
}

func (p *PrometheusSink) IncCounter(name string, delta float64, labels ...string) {
	p.counters.WithLabelValues(name, firstLabel(labels)).Add(delta)
}

func (p *PrometheusSink) SetGauge(name string, value float64, labels ...string) {
	p.gauges.WithLabelValues(name, firstLabel(labels)).Set(value)
}

func (p *PrometheusSink) ObserveDuration(name string, d time.Duration, labels ...string) {
	p.durations.WithLabelValues(name, firstLabel(labels)).Observe(d.Seconds())
}

func firstLabel(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	return labels[0]
}
