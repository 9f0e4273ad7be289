package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/ports"
	"github.com/schoolvote/election/internal/platform/metrics"
)

// Server push event types.
const (
	EventVoteCast          = "vote-cast"
	EventResultsUpdate     = "results-update"
	EventPostResultsUpdate = "post-results-update"
	EventVotingProgress    = "voting-progress"
	EventAdminNotification = "admin-notification"
)

// Notifier implements ports.ResultsBroadcaster on top of the hub. It
// pulls fresh results from the aggregator on every publish so pushed
// snapshots always match what a dashboard query would return.
type Notifier struct {
	hub     *Hub
	results ports.ResultsService
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewNotifier(hub *Hub, results ports.ResultsService, log *slog.Logger, m *metrics.Metrics) *Notifier {
	return &Notifier{hub: hub, results: results, log: log, metrics: m}
}

func (n *Notifier) VoteCommitted(ctx context.Context, postID, candidateID uuid.UUID) {
	n.publish(TopicVoting, Event{
		Type: EventVoteCast,
		Payload: map[string]any{
			"post_id":      postID,
			"candidate_id": candidateID,
			"at":           time.Now().UTC(),
		},
	})
	n.pushResults(ctx, postID, true)
}

func (n *Notifier) ResultsChanged(ctx context.Context, postID uuid.UUID) {
	n.pushResults(ctx, postID, false)
}

func (n *Notifier) NotifyAdmins(ctx context.Context, event string, details map[string]string) {
	n.publish(TopicAdmin, Event{
		Type: EventAdminNotification,
		Payload: map[string]any{
			"event":   event,
			"details": details,
			"at":      time.Now().UTC(),
		},
	})
}

func (n *Notifier) pushResults(ctx context.Context, postID uuid.UUID, progress bool) {
	results, err := n.results.GetPostResults(ctx, postID)
	if err != nil {
		// Realtime delivery is best-effort; the vote is already durable.
		n.log.Warn("broadcast skipped: results recount failed",
			"post_id", postID, "error", err)
		return
	}

	n.publish(TopicResults, Event{Type: EventResultsUpdate, Payload: results})
	n.publish(PostTopic(postID), Event{Type: EventPostResultsUpdate, Payload: results})

	if progress {
		n.publish(TopicVoting, Event{
			Type: EventVotingProgress,
			Payload: map[string]any{
				"post_id":            postID,
				"total_votes":        results.TotalVotes,
				"turnout_percentage": results.TurnoutPercentage,
			},
		})
	}
}

func (n *Notifier) publish(topic string, ev Event) {
	_, dropped := n.hub.Publish(topic, ev)
	if dropped > 0 {
		n.metrics.BroadcastsDropped.Add(float64(dropped))
		n.log.Warn("realtime messages dropped", "topic", topic, "type", ev.Type, "dropped", dropped)
	}
}
