package shared

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// BatchMetrics collects counters for a one-shot script. Scripts never
// serve /metrics so the registry is pushed once the run is over.
type BatchMetrics struct {
	App      string
	Registry *prometheus.Registry

	DomainUpdates *prometheus.CounterVec
	SitesCreated  prometheus.Counter
	LastSuccess   prometheus.Gauge
}

func NewBatchMetrics(app string) *BatchMetrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{
		"app": app,
	}
	return &BatchMetrics{
		App:      app,
		Registry: reg,
		DomainUpdates: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name:        "sites_domain_updates_total",
			Help:        "The total number of domain updates by outcome",
			ConstLabels: labels,
		}, []string{"result"}),
		SitesCreated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name:        "sites_domain_created_total",
			Help:        "The total number of sites created for a requested domain",
			ConstLabels: labels,
		}),
		LastSuccess: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name:        "sites_last_success_timestamp_seconds",
			Help:        "Unix time of the last successful run",
			ConstLabels: labels,
		}),
	}
}

func (m *BatchMetrics) Push(url string) error {
	return push.New(url, m.App).Gatherer(m.Registry).Push()
}
