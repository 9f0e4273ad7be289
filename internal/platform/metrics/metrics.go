package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the election core.
type Metrics struct {
	VotesCast          prometheus.Counter
	DuplicateVotes     prometheus.Counter
	VotesInvalidated   prometheus.Counter
	BroadcastsDropped  prometheus.Counter
	AuditEventsDropped prometheus.Counter
	BackupsCreated     prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on a specific registerer; tests pass a
// fresh registry to avoid duplicate registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VotesCast: factory.NewCounter(prometheus.CounterOpts{
			Name: "election_votes_cast_total",
			Help: "Total number of votes committed to the ledger",
		}),
		DuplicateVotes: factory.NewCounter(prometheus.CounterOpts{
			Name: "election_duplicate_votes_total",
			Help: "Total number of cast attempts rejected as duplicates",
		}),
		VotesInvalidated: factory.NewCounter(prometheus.CounterOpts{
			Name: "election_votes_invalidated_total",
			Help: "Total number of votes invalidated by audit actions",
		}),
		BroadcastsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "election_broadcasts_dropped_total",
			Help: "Total number of realtime messages dropped due to slow or gone subscribers",
		}),
		AuditEventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "election_audit_events_dropped_total",
			Help: "Total number of audit events dropped because the recorder inbox was full",
		}),
		BackupsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "election_backups_created_total",
			Help: "Total number of backup snapshots created",
		}),
	}
}
