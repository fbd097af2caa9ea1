package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	holdOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_hold_operations_total",
			Help: "Seat hold operations by kind and result",
		},
		[]string{"operation", "result"},
	)

	casConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_cas_conflicts_total",
			Help: "Compare-and-set conflicts observed on seat writes",
		},
		[]string{"operation"},
	)

	sweptHolds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_holds_expired_total",
			Help: "Expired holds returned to the pool by a sweep",
		},
	)

	finalizeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_finalize_total",
			Help: "Payment confirmations by outcome",
		},
		[]string{"outcome"},
	)

	droppedSeats = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_dropped_seats_total",
			Help: "Seats paid for but not booked, pending reconciliation",
		},
	)
)

func TrackHold(operation, result string) {
	holdOperations.WithLabelValues(operation, result).Inc()
}

func TrackConflict(operation string) {
	casConflicts.WithLabelValues(operation).Inc()
}

func TrackSwept(n int) {
	sweptHolds.Add(float64(n))
}

func TrackFinalize(outcome string, dropped int) {
	finalizeOutcomes.WithLabelValues(outcome).Inc()
	if dropped > 0 {
		droppedSeats.Add(float64(dropped))
	}
}
