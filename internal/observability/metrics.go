package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	realtimeEventsTotal  *prometheus.CounterVec
	realtimeReconnects   prometheus.Counter
	realtimeDroppedEmits prometheus.Counter
	messagesMergedTotal  prometheus.Counter
	pollRefreshTotal     prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the client.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techg_api_requests_total",
			Help: "Total number of REST API requests issued by the client.",
		}, []string{"method", "status"})

		realtimeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "techg_realtime_events_total",
			Help: "Total number of realtime events received, by event name.",
		}, []string{"event"})

		realtimeReconnects = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techg_realtime_reconnects_total",
			Help: "Total number of realtime channel reconnect attempts.",
		})

		realtimeDroppedEmits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techg_realtime_dropped_emits_total",
			Help: "Total number of emits dropped because the channel was down.",
		})

		messagesMergedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techg_messages_merged_total",
			Help: "Total number of messages merged into local view state.",
		})

		pollRefreshTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "techg_poll_refresh_total",
			Help: "Total number of polling refresh passes.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			realtimeEventsTotal,
			realtimeReconnects,
			realtimeDroppedEmits,
			messagesMergedTotal,
			pollRefreshTotal,
		)
	})
}

// APIRequests exposes the counter for REST requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// RealtimeEvents exposes the counter for received realtime events.
func RealtimeEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeEventsTotal
}

// RealtimeReconnects exposes the reconnect attempts counter.
func RealtimeReconnects() prometheus.Counter {
	RegisterMetrics()
	return realtimeReconnects
}

// RealtimeDroppedEmits exposes the dropped emit counter.
func RealtimeDroppedEmits() prometheus.Counter {
	RegisterMetrics()
	return realtimeDroppedEmits
}

// MessagesMerged exposes the merged message counter.
func MessagesMerged() prometheus.Counter {
	RegisterMetrics()
	return messagesMergedTotal
}

// PollRefreshes exposes the polling refresh counter.
func PollRefreshes() prometheus.Counter {
	RegisterMetrics()
	return pollRefreshTotal
}
