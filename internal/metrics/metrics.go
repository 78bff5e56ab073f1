package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics scrape-pipeline counters exposed on /metrics.
type Metrics struct {
	EventsFetched  *prometheus.CounterVec
	EventsInserted *prometheus.CounterVec
	EventsUpdated  *prometheus.CounterVec
	ScrapeFailures *prometheus.CounterVec
	ScrapeDuration prometheus.Summary
	LastSuccessTS  *prometheus.GaugeVec
}

// New registers the events-hub collectors on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventshub",
			Name:      "events_fetched_total",
			Help:      "Events fetched from upstream sources",
		}, []string{"source", "via"}),
		EventsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventshub",
			Name:      "events_inserted_total",
			Help:      "New event rows created by upserts",
		}, []string{"source"}),
		EventsUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventshub",
			Name:      "events_updated_total",
			Help:      "Existing event rows refreshed by upserts",
		}, []string{"source"}),
		ScrapeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventshub",
			Name:      "scrape_failures_total",
			Help:      "Scrape runs that ended in an error",
		}, []string{"source"}),
		ScrapeDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "eventshub",
			Name:      "scrape_duration_seconds",
			Help:      "Time spent per scrape run",
		}),
		LastSuccessTS: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "eventshub",
			Name:      "scrape_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful scrape",
		}, []string{"source"}),
	}

	reg.MustRegister(
		m.EventsFetched,
		m.EventsInserted,
		m.EventsUpdated,
		m.ScrapeFailures,
		m.ScrapeDuration,
		m.LastSuccessTS,
	)
	return m
}
