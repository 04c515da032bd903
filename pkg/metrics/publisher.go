package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AnchorPublisherMetrics records throughput and failures for the anchor
// event publishing loop.
type AnchorPublisherMetrics struct {
	batchDuration *prometheus.HistogramVec
	published     *prometheus.CounterVec
	failed        *prometheus.CounterVec
	pending       prometheus.Gauge
}

// NewAnchorPublisherMetrics registers the publisher metrics on the provided registerer.
func NewAnchorPublisherMetrics(reg prometheus.Registerer) *AnchorPublisherMetrics {
	if reg == nil {
		return &AnchorPublisherMetrics{}
	}
	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anchor_publish_batch_duration_seconds",
		Help:    "Duration of anchor publish batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"publisher"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anchor_events_published",
		Help: "Anchor events successfully published.",
	}, []string{"publisher"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "anchor_events_failed",
		Help: "Anchor event publish attempts that failed.",
	}, []string{"publisher"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "anchor_events_pending",
		Help: "Unpublished anchor events seen by the last poll.",
	})
	reg.MustRegister(batchDuration, published, failed, pending)
	return &AnchorPublisherMetrics{
		batchDuration: batchDuration,
		published:     published,
		failed:        failed,
		pending:       pending,
	}
}

// ObserveBatchDuration records the duration of one publish batch.
func (m *AnchorPublisherMetrics) ObserveBatchDuration(publisher string, duration time.Duration) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.WithLabelValues(normalizeLabel(publisher)).Observe(duration.Seconds())
}

// IncPublished increments the published counter.
func (m *AnchorPublisherMetrics) IncPublished(publisher string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(publisher)).Inc()
}

// IncFailed increments the failed counter.
func (m *AnchorPublisherMetrics) IncFailed(publisher string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(publisher)).Inc()
}

// SetPending records the pending backlog size.
func (m *AnchorPublisherMetrics) SetPending(count int) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(count))
}

func normalizeLabel(publisher string) string {
	if publisher == "" {
		return "unknown"
	}
	return publisher
}
