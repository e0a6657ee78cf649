package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultPublished = "published"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
	ResultAccepted  = "accepted"
	ResultRejected  = "rejected"
)

type Metrics interface {
	SchedulePublished(result string)
	RelayPublished(relay, result string)
	ScheduleEnqueued(source string)
	WebhookReceived(eventType string)
	StartSweep() Observer
	Handler() http.Handler
}

type Observer interface {
	Finish()
}

type metrics struct {
	registry          *prometheus.Registry
	schedulePublishes *prometheus.CounterVec
	relayPublishes    *prometheus.CounterVec
	schedulesEnqueued *prometheus.CounterVec
	webhookEvents     *prometheus.CounterVec
	sweepDuration     prometheus.Histogram
}

func NewMetrics() Metrics {
	m := &metrics{registry: prometheus.NewRegistry()}

	m.schedulePublishes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postr_schedule_publishes_total",
		Help: "Schedules processed by the publish worker, by result.",
	}, []string{"result"})

	m.relayPublishes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postr_relay_publishes_total",
		Help: "Event publishes to individual relays, by result.",
	}, []string{"relay", "result"})

	m.schedulesEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postr_schedules_enqueued_total",
		Help: "Schedules handed to the job queue, by source.",
	}, []string{"source"})

	m.webhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postr_webhook_events_total",
		Help: "Billing webhook events received, by type.",
	}, []string{"type"})

	m.sweepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "postr_sweep_duration_seconds",
		Help: "Duration in seconds of schedule sweeps.",
	})

	m.registry.MustRegister(
		m.schedulePublishes,
		m.relayPublishes,
		m.schedulesEnqueued,
		m.webhookEvents,
		m.sweepDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

type sweepObserver struct {
	start time.Time
	hist  prometheus.Histogram
}

func (o *sweepObserver) Finish() {
	o.hist.Observe(time.Since(o.start).Seconds())
}

func (m *metrics) SchedulePublished(result string) {
	m.schedulePublishes.WithLabelValues(result).Inc()
}

func (m *metrics) RelayPublished(relay, result string) {
	m.relayPublishes.WithLabelValues(relay, result).Inc()
}

func (m *metrics) ScheduleEnqueued(source string) {
	m.schedulesEnqueued.WithLabelValues(source).Inc()
}

func (m *metrics) WebhookReceived(eventType string) {
	m.webhookEvents.WithLabelValues(eventType).Inc()
}

func (m *metrics) StartSweep() Observer {
	return &sweepObserver{time.Now(), m.sweepDuration}
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
