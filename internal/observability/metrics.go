package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreTxRetries counts atomic-update attempts that lost a CAS race,
	// by store backend.
	StoreTxRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_store_tx_retries_total",
		Help: "Total number of atomic update retries by store backend",
	}, []string{"backend"})

	// StoreEventsTotal counts change events fanned out by topic root.
	StoreEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_store_events_total",
		Help: "Total number of store change events by topic root",
	}, []string{"topic"})

	// BrokerSnapshotsTotal counts full-collection snapshots delivered to
	// subscribers, by topic root.
	BrokerSnapshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_broker_snapshots_total",
		Help: "Total number of collection snapshots delivered by topic root",
	}, []string{"topic"})

	// BrokerSubscriptions is the gauge of live broker subscriptions.
	BrokerSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ripple_broker_subscriptions",
		Help: "Number of active broker subscriptions",
	})

	// NotificationsFanned counts notification records written, by kind.
	NotificationsFanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_notifications_fanned_total",
		Help: "Total number of notifications written by kind",
	}, []string{"kind"})

	// EngagementMutations counts engagement operations by kind and outcome.
	EngagementMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_engagement_mutations_total",
		Help: "Total number of engagement mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ripple_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts outbound frames dropped because a
	// client's send buffer was full or its channel already closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
