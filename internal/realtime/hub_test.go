package realtime

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveEvent(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		require.True(t, ok, "event stream closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, s *Session) {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		if ok {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
	}
}

func TestHubPublishToMembers(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	member := hub.Register()
	outsider := hub.Register()
	hub.Join(member, TopicResults)
	hub.Join(outsider, TopicAdmin)

	delivered, dropped := hub.Publish(TopicResults, Event{Type: "results-update"})
	assert.Equal(t, 1, delivered)
	assert.Zero(t, dropped)

	ev := receiveEvent(t, member)
	assert.Equal(t, "results-update", ev.Type)

	// Membership is per topic; the admin subscriber sees nothing.
	assertNoEvent(t, outsider)
}

func TestHubPublishOrder(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	s := hub.Register()
	hub.Join(s, TopicVoting)

	for i := 0; i < 5; i++ {
		hub.Publish(TopicVoting, Event{Type: fmt.Sprintf("ev-%d", i)})
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("ev-%d", i), receiveEvent(t, s).Type)
	}
}

func TestHubLeave(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	s := hub.Register()
	postID := uuid.New()
	hub.Join(s, PostTopic(postID))

	hub.Publish(PostTopic(postID), Event{Type: "before-leave"})
	assert.Equal(t, "before-leave", receiveEvent(t, s).Type)

	hub.Leave(s, PostTopic(postID))
	delivered, _ := hub.Publish(PostTopic(postID), Event{Type: "after-leave"})
	assert.Zero(t, delivered)
	assertNoEvent(t, s)

	// Leaving an unknown topic is harmless.
	hub.Leave(s, "never-joined")
}

func TestHubDisconnect(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	s := hub.Register()
	hub.Join(s, TopicResults)
	hub.Join(s, TopicVoting)

	hub.Disconnect(s)

	_, ok := <-s.Events()
	assert.False(t, ok, "event stream should be closed after disconnect")

	delivered, dropped := hub.Publish(TopicResults, Event{Type: "late"})
	assert.Zero(t, delivered)
	assert.Zero(t, dropped)

	// Terminal state: joins after disconnect are ignored.
	hub.Join(s, TopicResults)
	delivered, _ = hub.Publish(TopicResults, Event{Type: "later"})
	assert.Zero(t, delivered)

	// Idempotent.
	hub.Disconnect(s)
}

func TestHubDropsOnFullBuffer(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	s := hub.Register()
	hub.Join(s, TopicResults)

	// Nothing drains the session, so the buffer fills and overflow is
	// dropped rather than blocking the publisher.
	var delivered, dropped int
	for i := 0; i < sessionBuffer+10; i++ {
		d, dr := hub.Publish(TopicResults, Event{Type: "flood"})
		delivered += d
		dropped += dr
	}
	assert.Equal(t, sessionBuffer, delivered)
	assert.Equal(t, 10, dropped)
}

func TestHubShutdown(t *testing.T) {
	hub := NewHub()

	a := hub.Register()
	b := hub.Register()
	hub.Join(a, TopicResults)
	hub.Join(b, TopicAdmin)

	hub.Shutdown()

	_, ok := <-a.Events()
	assert.False(t, ok)
	_, ok = <-b.Events()
	assert.False(t, ok)

	// Joins after shutdown do not resurrect membership.
	c := hub.Register()
	hub.Join(c, TopicResults)
	delivered, _ := hub.Publish(TopicResults, Event{Type: "post-shutdown"})
	assert.Zero(t, delivered)

	// Safe to call twice.
	hub.Shutdown()
}

func TestSessionTopics(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	s := hub.Register()
	assert.Empty(t, s.Topics())

	hub.Join(s, TopicVoting)
	hub.Join(s, TopicVoting)
	hub.Join(s, TopicResults)
	assert.ElementsMatch(t, []string{TopicVoting, TopicResults}, s.Topics())

	hub.Leave(s, TopicVoting)
	assert.ElementsMatch(t, []string{TopicResults}, s.Topics())
}
