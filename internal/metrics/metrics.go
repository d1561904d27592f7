// Package metrics exposes the Prometheus metrics a discovery daemon
// records, modeled on storage-node/internal/metrics/prometheus.go.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric this module records.
type Metrics struct {
	WritersTotal      prometheus.Gauge
	ReadersTotal      prometheus.Gauge
	ParticipantsTotal prometheus.Gauge
	NodesTotal        prometheus.Gauge

	GraphChangesTotal prometheus.Counter

	QoSChecksTotal       prometheus.CounterVec
	QoSResolutionsTotal  prometheus.Counter
	QoSResolutionsFailed prometheus.Counter

	DiscoveryMessagesTotal    prometheus.CounterVec
	DiscoveryMessageDuration  prometheus.Histogram

	ListenerQueueDepth    prometheus.Gauge
	ListenerTasksTotal     prometheus.Counter
	ListenerTasksFailed    prometheus.Counter
	ListenerTasksRejected  prometheus.Counter

	GossipMembersTotal prometheus.Gauge
}

// New creates and registers every metric, labeled by the owning
// participant's gid so a process hosting more than one Context in a
// single scrape target stays distinguishable.
func New(participantGid string) *Metrics {
	labels := prometheus.Labels{"participant": participantGid}

	return &Metrics{
		WritersTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "graph",
			Name:        "writers_total",
			Help:        "Current number of data writers known to the graph cache",
			ConstLabels: labels,
		}),
		ReadersTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "graph",
			Name:        "readers_total",
			Help:        "Current number of data readers known to the graph cache",
			ConstLabels: labels,
		}),
		ParticipantsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "graph",
			Name:        "participants_total",
			Help:        "Current number of participants known to the graph cache",
			ConstLabels: labels,
		}),
		NodesTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "graph",
			Name:        "nodes_total",
			Help:        "Current number of nodes known to the graph cache",
			ConstLabels: labels,
		}),
		GraphChangesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "graph",
			Name:        "changes_total",
			Help:        "Total number of graph cache change notifications fired",
			ConstLabels: labels,
		}),
		QoSChecksTotal: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "qos",
			Name:        "checks_total",
			Help:        "Total number of QoS compatibility checks by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		QoSResolutionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "qos",
			Name:        "resolutions_total",
			Help:        "Total number of BEST_AVAILABLE QoS resolutions performed",
			ConstLabels: labels,
		}),
		QoSResolutionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "qos",
			Name:        "resolutions_failed_total",
			Help:        "Total number of BEST_AVAILABLE QoS resolutions that errored",
			ConstLabels: labels,
		}),
		DiscoveryMessagesTotal: *promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "discovery",
			Name:        "messages_total",
			Help:        "Total number of discovery messages by direction",
			ConstLabels: labels,
		}, []string{"direction"}),
		DiscoveryMessageDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "discovery",
			Name:        "message_apply_duration_seconds",
			Help:        "Histogram of time spent applying a discovery message to the graph cache",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
		ListenerQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "listener",
			Name:        "queue_depth",
			Help:        "Current depth of the listener worker's task queue",
			ConstLabels: labels,
		}),
		ListenerTasksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "listener",
			Name:        "tasks_total",
			Help:        "Total number of tasks submitted to the listener worker",
			ConstLabels: labels,
		}),
		ListenerTasksFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "listener",
			Name:        "tasks_failed_total",
			Help:        "Total number of listener tasks that failed or panicked",
			ConstLabels: labels,
		}),
		ListenerTasksRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "listener",
			Name:        "tasks_rejected_total",
			Help:        "Total number of listener tasks rejected due to a full queue or stopped worker",
			ConstLabels: labels,
		}),
		GossipMembersTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "rmw_dds_common",
			Subsystem:   "gossip",
			Name:        "members_total",
			Help:        "Current number of members in the discovery gossip mesh",
			ConstLabels: labels,
		}),
	}
}

// RecordQoSCheck records the outcome of a CheckCompatible call.
func (m *Metrics) RecordQoSCheck(outcome string) {
	m.QoSChecksTotal.WithLabelValues(outcome).Inc()
}

// RecordQoSResolution records a BEST_AVAILABLE QoS resolution attempt.
func (m *Metrics) RecordQoSResolution(failed bool) {
	m.QoSResolutionsTotal.Inc()
	if failed {
		m.QoSResolutionsFailed.Inc()
	}
}

// RecordDiscoveryMessage records a discovery message observed in the
// given direction ("inbound" or "outbound") and how long applying it
// took.
func (m *Metrics) RecordDiscoveryMessage(direction string, durationSeconds float64) {
	m.DiscoveryMessagesTotal.WithLabelValues(direction).Inc()
	m.DiscoveryMessageDuration.Observe(durationSeconds)
}

// UpdateGraphStats updates the graph-shape gauges from a GraphCache
// snapshot.
func (m *Metrics) UpdateGraphStats(writers, readers, participants, nodes int) {
	m.WritersTotal.Set(float64(writers))
	m.ReadersTotal.Set(float64(readers))
	m.ParticipantsTotal.Set(float64(participants))
	m.NodesTotal.Set(float64(nodes))
}
