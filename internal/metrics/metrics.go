package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "floor",
			Name:      "reservation_created_total",
			Help:      "Count of reservations created by initial status.",
		},
		[]string{"status"},
	)

	reservationConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "floor",
			Name:      "reservation_conflict_total",
			Help:      "Count of bookings rejected because the table slot was taken.",
		},
	)

	statusTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "floor",
			Name:      "reservation_status_transition_total",
			Help:      "Count of reservation status transitions by target status.",
		},
		[]string{"to"},
	)

	tableOperation = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "floor",
			Name:      "table_operation_total",
			Help:      "Count of table merge/unmerge/lock/unlock operations.",
		},
		[]string{"op"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationCreated, reservationConflict, statusTransition, tableOperation)
	})
}

func IncReservationCreated(status string) {
	reservationCreated.WithLabelValues(status).Inc()
}

func IncReservationConflict() {
	reservationConflict.Inc()
}

func IncStatusTransition(to string) {
	statusTransition.WithLabelValues(to).Inc()
}

func IncTableOperation(op string) {
	tableOperation.WithLabelValues(op).Inc()
}
