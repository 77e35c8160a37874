// Package metrics holds the Prometheus collectors of the formatter.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lorasense"

type Metrics struct {
	registry *prometheus.Registry

	FramesDecoded    prometheus.Counter
	FramesRejected   *prometheus.CounterVec
	SamplesEmitted   prometheus.Counter
	DecodeDuration   prometheus.Histogram
	PublishFailures  prometheus.Counter
	DeadLetterErrors prometheus.Counter
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_decoded_total",
			Help:      "Frames decoded and published.",
		}),
		FramesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rejected_total",
			Help:      "Uplinks that could not be formatted, by reason.",
		}, []string{"reason"}),
		SamplesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_emitted_total",
			Help:      "Timestamped samples produced from decoded frames.",
		}),
		DecodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding and formatting one uplink.",
			Buckets:   []float64{.00001, .000025, .00005, .0001, .00025, .0005, .001, .005, .01},
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Envelopes that could not be published to the broker.",
		}),
		DeadLetterErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deadletter_errors_total",
			Help:      "Dead letters that could not be stored.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FramesDecoded,
		m.FramesRejected,
		m.SamplesEmitted,
		m.DecodeDuration,
		m.PublishFailures,
		m.DeadLetterErrors,
	)
	return m
}

// ObserveDecode records a successful frame.
func (m *Metrics) ObserveDecode(samples int, took time.Duration) {
	m.FramesDecoded.Inc()
	m.SamplesEmitted.Add(float64(samples))
	m.DecodeDuration.Observe(took.Seconds())
}

func (m *Metrics) Reject(reason string) {
	m.FramesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
