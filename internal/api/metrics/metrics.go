// Package metrics defines and registers all custom Prometheus metrics for the
// parking API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "parking"

// ── Parking metrics ───────────────────────────────────────────────────────────

// ParkingOperationsTotal counts check-in and check-out attempts.
// Labels:
//   - operation: "check_in" or "check_out"
//   - result: "ok", "replayed", or the error kind (e.g. "not_found", "unavailable")
var ParkingOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of check-in and check-out attempts, by result.",
	},
	[]string{"operation", "result"},
)

// RevenueTotal accumulates the amount due (fee minus discount) of closed sessions.
var RevenueTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revenue_total",
		Help:      "Total amount charged at check-out, after discounts.",
	},
)

// DiscountsGrantedTotal counts check-outs that received the loyalty discount.
var DiscountsGrantedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "discounts_granted_total",
		Help:      "Total number of check-outs that received a loyalty discount.",
	},
)

// SessionDuration observes the billed length of closed sessions.
var SessionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_duration_minutes",
		Help:      "Length of closed parking sessions in minutes.",
		Buckets:   []float64{15, 30, 60, 120, 240, 480, 1440},
	},
)

// ── Spot feed metrics ─────────────────────────────────────────────────────────

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of spot events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventsDroppedTotal counts spot events discarded because a worker channel was full.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of spot events dropped on a full dispatcher queue.",
	},
)

// EventProcessingDuration measures how long a single spot event takes to fan out.
// Label:
//   - type: "check_in", "check_out", or "error" on failure
var EventProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_processing_duration_seconds",
		Help:      "Duration of spot event processing from dequeue to broadcast.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// FeedSubscribers tracks the number of connected spot feed clients.
var FeedSubscribers = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_subscribers",
		Help:      "Current number of connected spot feed WebSocket clients.",
	},
)

// SpotsOccupied tracks the number of spots currently held by an open session.
var SpotsOccupied = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "spots_occupied",
		Help:      "Current number of occupied parking spots.",
	},
)
