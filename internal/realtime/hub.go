package realtime

import (
	"sync"

	"github.com/google/uuid"
)

const (
	// TopicVoting carries lightweight vote-occurred and turnout events.
	TopicVoting = "voting"
	// TopicResults carries full result snapshots for every post.
	TopicResults = "results"
	// TopicAdmin carries privileged operational notifications.
	TopicAdmin = "admin"
)

// PostTopic names the per-post result topic.
func PostTopic(postID uuid.UUID) string {
	return "post:" + postID.String()
}

// Event is a single server push frame.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const sessionBuffer = 32

// Session is one connected subscriber. Its lifecycle is
// connected -> subscribed(topics) -> disconnected (terminal).
// Events are delivered to Events() in publish order; a full buffer or a
// disconnected session drops the message (delivery is at-most-once).
type Session struct {
	hub *Hub
	out chan Event

	mu           sync.Mutex
	topics       map[string]struct{}
	disconnected bool
}

// Events is the ordered stream of pushes for this session. The channel
// is closed on disconnect.
func (s *Session) Events() <-chan Event {
	return s.out
}

// Topics returns a snapshot of current memberships.
func (s *Session) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.topics))
	for name := range s.topics {
		names = append(names, name)
	}
	return names
}

func (s *Session) send(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disconnected {
		return false
	}
	select {
	case s.out <- ev:
		return true
	default:
		return false
	}
}

// Hub is a typed topic registry: topic name -> set of sessions. It is
// constructed explicitly at startup and passed to everything that
// publishes; there is no package-level singleton. Join, Leave and
// Disconnect are the only membership mutators.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[*Session]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[*Session]struct{})}
}

// Register creates a session in the connected state with no memberships.
func (h *Hub) Register() *Session {
	return &Session{
		hub:    h,
		out:    make(chan Event, sessionBuffer),
		topics: make(map[string]struct{}),
	}
}

// Join adds the session to a topic. Joining twice is a no-op.
func (h *Hub) Join(s *Session, topic string) {
	s.mu.Lock()
	if s.disconnected {
		s.mu.Unlock()
		return
	}
	s.topics[topic] = struct{}{}
	s.mu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Session]struct{})
		h.topics[topic] = members
	}
	members[s] = struct{}{}
}

// Leave removes the session from a topic. Leaving a topic the session
// never joined is a no-op.
func (h *Hub) Leave(s *Session, topic string) {
	s.mu.Lock()
	delete(s.topics, topic)
	s.mu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeMember(s, topic)
}

// Disconnect drops all memberships and closes the event stream. The
// session is terminal afterwards; further joins are ignored.
func (h *Hub) Disconnect(s *Session) {
	s.mu.Lock()
	if s.disconnected {
		s.mu.Unlock()
		return
	}
	s.disconnected = true
	topics := make([]string, 0, len(s.topics))
	for topic := range s.topics {
		topics = append(topics, topic)
	}
	s.topics = make(map[string]struct{})
	s.mu.Unlock()

	h.mu.Lock()
	for _, topic := range topics {
		h.removeMember(s, topic)
	}
	h.mu.Unlock()

	close(s.out)
}

// Publish delivers the event to every current member of the topic.
// It returns how many sessions accepted the event and how many dropped
// it (full buffer or racing disconnect).
func (h *Hub) Publish(topic string, ev Event) (delivered, dropped int) {
	h.mu.Lock()
	members := make([]*Session, 0, len(h.topics[topic]))
	for s := range h.topics[topic] {
		members = append(members, s)
	}
	h.mu.Unlock()

	for _, s := range members {
		if s.send(ev) {
			delivered++
		} else {
			dropped++
		}
	}
	return delivered, dropped
}

// Shutdown disconnects every session and stops accepting joins.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	seen := make(map[*Session]struct{})
	for _, members := range h.topics {
		for s := range members {
			seen[s] = struct{}{}
		}
	}
	h.topics = make(map[string]map[*Session]struct{})
	h.mu.Unlock()

	for s := range seen {
		s.mu.Lock()
		already := s.disconnected
		s.disconnected = true
		s.topics = make(map[string]struct{})
		s.mu.Unlock()
		if !already {
			close(s.out)
		}
	}
}

// caller must hold h.mu
func (h *Hub) removeMember(s *Session, topic string) {
	members, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.topics, topic)
	}
}
