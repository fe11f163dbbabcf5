// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"time"

	"github.com/netlytics/netlytics/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	eventsRecordedCounter      *prometheus.CounterVec
	eventRecordFailuresCounter prometheus.Counter
	eventQueryDurationMetric   *prometheus.HistogramVec
	postViewsCounter           prometheus.Counter
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		eventsRecordedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analytics_events_recorded_total",
				Help: "Total number of analytics events recorded by event type.",
			},
			[]string{"event_type"},
		)

		eventRecordFailuresCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_event_record_failures_total",
				Help: "Total number of rejected or failed event record attempts.",
			},
		)

		eventQueryDurationMetric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analytics_event_query_duration_seconds",
				Help:    "Duration of event list, count and stats queries in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		)

		postViewsCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_post_views_total",
				Help: "Total number of post view beacons applied.",
			},
		)

		prometheus.MustRegister(
			eventsRecordedCounter,
			eventRecordFailuresCounter,
			eventQueryDurationMetric,
			postViewsCounter,
		)

		// Ensure counter vectors are visible at /metrics before first increment.
		for _, eventType := range domain.KnownEventTypes {
			eventsRecordedCounter.WithLabelValues(eventType)
		}
		for _, operation := range []string{"list", "count", "stats"} {
			eventQueryDurationMetric.WithLabelValues(operation)
		}
	})
}

func IncEventRecorded(eventType string) {
	Init()
	eventsRecordedCounter.WithLabelValues(eventType).Inc()
}

func IncEventRecordFailure() {
	Init()
	eventRecordFailuresCounter.Inc()
}

func ObserveEventQueryDuration(operation string, d time.Duration) {
	Init()
	eventQueryDurationMetric.WithLabelValues(operation).Observe(d.Seconds())
}

func IncPostViews() {
	Init()
	postViewsCounter.Inc()
}
