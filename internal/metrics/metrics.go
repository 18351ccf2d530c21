package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "study_api"

// Metrics holds the Prometheus collectors of one server instance.
// Each instance owns its registry so tests can build many servers.
type Metrics struct {
	registry *prometheus.Registry

	studyReads       *prometheus.CounterVec
	annotationSaves  *prometheus.CounterVec
	annotationsTotal prometheus.Counter
	videoAppends     *prometheus.CounterVec
	requestLatency   *prometheus.HistogramVec
}

// New creates and registers all service metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		studyReads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "study_reads_total",
				Help:      "Study list and detail reads by operation and result",
			},
			[]string{"operation", "result"},
		),
		annotationSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "annotation_saves_total",
				Help:      "Annotation slice replacements by result",
			},
			[]string{"result"},
		),
		annotationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "annotations_written_total",
				Help:      "Annotations written across all successful saves",
			},
		),
		videoAppends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "video_appends_total",
				Help:      "Video ledger appends by result",
			},
			[]string{"result"},
		),
		requestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route, method and status",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStudyRead counts a list or detail read
func (m *Metrics) ObserveStudyRead(operation string, err error) {
	m.studyReads.WithLabelValues(operation, result(err)).Inc()
}

// ObserveAnnotationSave counts a save and the number of annotations it wrote
func (m *Metrics) ObserveAnnotationSave(count int, err error) {
	m.annotationSaves.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.annotationsTotal.Add(float64(count))
	}
}

// ObserveVideoAppend counts a ledger append
func (m *Metrics) ObserveVideoAppend(err error) {
	m.videoAppends.WithLabelValues(result(err)).Inc()
}

// ObserveRequest records the latency of one HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestLatency.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
