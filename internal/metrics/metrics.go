// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"time"

	"github.com/LuisMiguel13ad/Maguey-Nightclub-Live--sub007/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	eventsAppendedCounter *prometheus.CounterVec
	appendFailuresCounter prometheus.Counter
	storeQueriesCounter   *prometheus.CounterVec
	replayDurationMetric  prometheus.Histogram
	replayedEventsMetric  prometheus.Histogram
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		eventsAppendedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_events_appended_total",
				Help: "Total number of events appended, by event type.",
			},
			[]string{"type"},
		)

		appendFailuresCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ticket_event_append_failures_total",
				Help: "Total number of appends rejected by the backing store.",
			},
		)

		storeQueriesCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_event_store_queries_total",
				Help: "Total number of event store read operations, by operation.",
			},
			[]string{"op"},
		)

		replayDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ticket_replay_duration_seconds",
				Help:    "Duration of state rebuilds in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		replayedEventsMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ticket_replay_events",
				Help:    "Number of events folded per state rebuild.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		)

		prometheus.MustRegister(
			eventsAppendedCounter,
			appendFailuresCounter,
			storeQueriesCounter,
			replayDurationMetric,
			replayedEventsMetric,
		)

		// Ensure the type-labelled counter is visible at /metrics before the
		// first increment.
		for _, t := range domain.EventTypes() {
			eventsAppendedCounter.WithLabelValues(string(t))
		}
	})
}

func IncEventAppended(t domain.EventType) {
	Init()
	eventsAppendedCounter.WithLabelValues(string(t)).Inc()
}

func IncAppendFailure() {
	Init()
	appendFailuresCounter.Inc()
}

func IncStoreQuery(op string) {
	Init()
	storeQueriesCounter.WithLabelValues(op).Inc()
}

func ObserveReplay(d time.Duration, events int) {
	Init()
	replayDurationMetric.Observe(d.Seconds())
	replayedEventsMetric.Observe(float64(events))
}
