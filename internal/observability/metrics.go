package observability

import "github.com/prometheus/client_golang/prometheus"

// Bot-level collectors. Label sets are small and fixed so cardinality stays
// bounded regardless of traffic.
var (
	// PostsIngested counts channel posts that were assigned a code and stored.
	PostsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relaybot_posts_ingested_total",
		Help: "Channel posts registered under a new code.",
	})

	// AllocationFailures counts failed counter read-modify-writes.
	AllocationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relaybot_allocation_failures_total",
		Help: "Code allocations that failed and left the counter unchanged.",
	})

	// RegistryFailures counts failed registry writes after a successful allocation.
	RegistryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relaybot_registry_write_failures_total",
		Help: "Post records that could not be stored; their codes are lost.",
	})

	// NotifyFailures counts operator notifications that could not be sent.
	NotifyFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relaybot_operator_notify_failures_total",
		Help: "Failed operator notifications.",
	})

	// Deliveries counts delivery attempts by outcome (delivered|not_found|failed).
	Deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relaybot_deliveries_total",
		Help: "Delivery attempts by outcome.",
	}, []string{"outcome"})

	// ExpiryDeletions counts scheduled deletions by result (ok|failed).
	ExpiryDeletions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relaybot_expiry_deletions_total",
		Help: "Scheduled deletions by result.",
	}, []string{"result"})

	// ExpiryPending gauges deletions waiting for their delay to elapse.
	ExpiryPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relaybot_expiry_pending",
		Help: "Deletions scheduled but not yet executed.",
	})

	// Updates counts inbound platform updates by kind.
	Updates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relaybot_updates_total",
		Help: "Inbound updates by kind.",
	}, []string{"kind"})

	// Throttled counts requests dropped by the per-requester limiter.
	Throttled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relaybot_requests_throttled_total",
		Help: "Private requests rejected by the per-requester rate limit.",
	})
)

func init() {
	prometheus.MustRegister(
		PostsIngested, AllocationFailures, RegistryFailures, NotifyFailures,
		Deliveries, ExpiryDeletions, ExpiryPending, Updates, Throttled,
	)
}
