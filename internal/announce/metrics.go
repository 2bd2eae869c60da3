package announce

import "github.com/prometheus/client_golang/prometheus"

var (
	announcementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "upialert",
		Subsystem: "announce",
		Name:      "requests_total",
		Help:      "Total announcements processed, by result.",
	}, []string{"result"})

	announcementDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "upialert",
		Subsystem: "announce",
		Name:      "duration_seconds",
		Help:      "Time from session acquisition to release.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "upialert",
		Subsystem: "announce",
		Name:      "queue_depth",
		Help:      "Announcements waiting for the audio session.",
	})

	engineReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "upialert",
		Subsystem: "announce",
		Name:      "engine_ready",
		Help:      "1 when the speech engine reported ready, 0 otherwise.",
	})
)

func init() {
	prometheus.MustRegister(
		announcementsTotal,
		announcementDuration,
		queueDepth,
		engineReady,
	)
}
