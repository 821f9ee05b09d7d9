package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the bot counters on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Updates          *prometheus.CounterVec
	Submissions      *prometheus.CounterVec
	UploadFailures   prometheus.Counter
	DuplicateUpdates prometheus.Counter
}

// New registers all collectors, including Go runtime and process metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signbot_updates_total",
			Help: "Telegram updates handled, by kind.",
		}, []string{"kind"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signbot_submissions_total",
			Help: "Signed documents stored on Drive, by source.",
		}, []string{"source"}),
		UploadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signbot_upload_failures_total",
			Help: "Submissions that could not be downloaded or stored.",
		}),
		DuplicateUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signbot_duplicate_updates_total",
			Help: "Webhook redeliveries skipped by update id.",
		}),
	}
	reg.MustRegister(
		m.Updates,
		m.Submissions,
		m.UploadFailures,
		m.DuplicateUpdates,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
