// Package metrics provides Prometheus metrics for the lead market service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lead_market"

// Metrics holds the service counters exported on /metrics.
type Metrics struct {
	LeadsScored    prometheus.Counter
	AuctionsWon    prometheus.Counter
	AuctionsNoSale prometheus.Counter
	Deliveries     *prometheus.CounterVec
	Outcomes       *prometheus.CounterVec
	Bookings       prometheus.Counter
	BookingErrors  *prometheus.CounterVec
	Cancellations  prometheus.Counter
	SlotsGenerated prometheus.Counter
}

// New registers the service metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LeadsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_scored_total",
			Help:      "Total leads ingested and scored",
		}),
		AuctionsWon: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auctions_won_total",
			Help:      "Total auctions with a winning buyer",
		}),
		AuctionsNoSale: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auctions_no_sale_total",
			Help:      "Total auctions with no eligible buyer",
		}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total delivery attempts by status",
		}, []string{"status"}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Total buyer outcome reports by outcome",
		}, []string{"outcome"}),
		Bookings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_booked_total",
			Help:      "Total appointments booked",
		}),
		BookingErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_errors_total",
			Help:      "Total booking failures by kind",
		}, []string{"kind"}),
		Cancellations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_cancellations_total",
			Help:      "Total appointment cancellations",
		}),
		SlotsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_generated_total",
			Help:      "Total slots generated",
		}),
	}
}
