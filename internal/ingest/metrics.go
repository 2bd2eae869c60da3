package ingest

import "github.com/prometheus/client_golang/prometheus"

var (
	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "upialert",
		Subsystem: "ingest",
		Name:      "events_total",
		Help:      "Notification events handled, by outcome.",
	}, []string{"status"})

	amountReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "upialert",
		Subsystem: "ingest",
		Name:      "amount_received_rupees_total",
		Help:      "Sum of recorded payment amounts, by source application.",
	}, []string{"source"})
)

func init() {
	prometheus.MustRegister(eventsTotal, amountReceived)
}
