package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesReceived  *prometheus.CounterVec
	MessagesPublished *prometheus.CounterVec
	LookupRequests    *prometheus.CounterVec

	StoreQueryErrorCount *prometheus.CounterVec
)

func init() {
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_agent_messages_received",
			Help: "A counter metric to measure the total count of asset messages received, by operation and result",
		},
		[]string{"operation", "result"},
	)

	MessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_agent_messages_published",
			Help: "A counter metric to measure the total count of asset changes republished on the stream",
		},
		[]string{"operation"},
	)

	LookupRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_agent_lookup_requests",
			Help: "A counter metric to measure name to id lookups served over the bus",
		},
		[]string{"result"},
	)

	StoreQueryErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_agent_store_query_errors",
			Help: "A counter metric to measure the total count of failed store queries",
		},
		[]string{"operation"},
	)
}
