// ABOUTME: Prometheus instrumentation for collection sync
// ABOUTME: Counts remote operations and tracks pending records and snapshot discards
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements store.Metrics on a private registry.
type Recorder struct {
	registry  *prometheus.Registry
	remoteOps *prometheus.CounterVec
	pending   *prometheus.GaugeVec
	snapshots *prometheus.CounterVec
	discarded *prometheus.CounterVec
}

// NewRecorder registers the sync metrics on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		remoteOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mylifeos",
			Name:      "remote_operations_total",
			Help:      "Remote document store calls by collection, operation and result.",
		}, []string{"collection", "op", "result"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mylifeos",
			Name:      "pending_records",
			Help:      "Records still carrying a temporary id.",
		}, []string{"collection"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mylifeos",
			Name:      "snapshots_applied_total",
			Help:      "Remote snapshots applied to a collection.",
		}, []string{"collection"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mylifeos",
			Name:      "discarded_records_total",
			Help:      "Unconfirmed records dropped by a remote snapshot.",
		}, []string{"collection"}),
	}
	r.registry.MustRegister(r.remoteOps, r.pending, r.snapshots, r.discarded)
	return r
}

func (r *Recorder) RemoteOp(collection, op, result string) {
	r.remoteOps.WithLabelValues(collection, op, result).Inc()
}

func (r *Recorder) PendingRecords(collection string, n int) {
	r.pending.WithLabelValues(collection).Set(float64(n))
}

func (r *Recorder) SnapshotApplied(collection string, discarded int) {
	r.snapshots.WithLabelValues(collection).Inc()
	if discarded > 0 {
		r.discarded.WithLabelValues(collection).Add(float64(discarded))
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
