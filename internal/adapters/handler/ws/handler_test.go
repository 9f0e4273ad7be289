package ws

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/realtime"
)

// staticAuth maps fixed tokens to roles, standing in for the JWT check.
type staticAuth struct {
	tokens map[string]domain.Role
}

func (a *staticAuth) ParseToken(tokenString string) (uuid.UUID, domain.Role, error) {
	role, ok := a.tokens[tokenString]
	if !ok {
		return uuid.Nil, "", errors.New("invalid token")
	}
	return uuid.New(), role, nil
}

type wsEnv struct {
	hub    *realtime.Hub
	server *httptest.Server
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()

	hub := realtime.NewHub()
	t.Cleanup(hub.Shutdown)

	auth := &staticAuth{tokens: map[string]domain.Role{
		"voter-token": domain.RoleVoter,
		"admin-token": domain.RoleAdmin,
	}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	server := httptest.NewServer(NewHandler(hub, auth, log))
	t.Cleanup(server.Close)

	return &wsEnv{hub: hub, server: server}
}

func (env *wsEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http")
	config, err := websocket.NewConfig(wsURL, "http://localhost/")
	require.NoError(t, err)
	config.Header = http.Header{"Authorization": []string{"Bearer " + token}}

	conn, err := websocket.DialConfig(config)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// publishUntilDelivered retries until the subscription registered by a
// racing join frame is visible to the hub.
func (env *wsEnv) publishUntilDelivered(t *testing.T, topic string, ev realtime.Event) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if delivered, _ := env.hub.Publish(topic, ev); delivered > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no subscriber on topic %q", topic)
}

func receiveFrame(t *testing.T, conn *websocket.Conn) realtime.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev realtime.Event
	require.NoError(t, websocket.JSON.Receive(conn, &ev))
	return ev
}

func TestHandlerRejectsUnauthenticated(t *testing.T) {
	env := newWSEnv(t)

	resp, err := http.Get(env.server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Post(env.server.URL, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http")
	config, err := websocket.NewConfig(wsURL, "http://localhost/")
	require.NoError(t, err)
	config.Header = http.Header{"Authorization": []string{"Bearer wrong"}}
	_, err = websocket.DialConfig(config)
	assert.Error(t, err)
}

func TestJoinResultsReceivesUpdates(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, "voter-token")

	require.NoError(t, websocket.JSON.Send(conn, clientFrame{Action: actionJoinResults}))

	env.publishUntilDelivered(t, realtime.TopicResults, realtime.Event{
		Type:    realtime.EventResultsUpdate,
		Payload: map[string]any{"total_votes": 1},
	})

	ev := receiveFrame(t, conn)
	assert.Equal(t, realtime.EventResultsUpdate, ev.Type)
}

func TestJoinAndLeavePost(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, "voter-token")
	postID := uuid.New()

	require.NoError(t, websocket.JSON.Send(conn, clientFrame{Action: actionJoinPost, PostID: postID.String()}))
	env.publishUntilDelivered(t, realtime.PostTopic(postID), realtime.Event{Type: realtime.EventPostResultsUpdate})
	assert.Equal(t, realtime.EventPostResultsUpdate, receiveFrame(t, conn).Type)

	require.NoError(t, websocket.JSON.Send(conn, clientFrame{Action: actionLeavePost, PostID: postID.String()}))

	// After the leave lands, publishes stop reaching this session.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		delivered, _ := env.hub.Publish(realtime.PostTopic(postID), realtime.Event{Type: "probe"})
		if delivered == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session still subscribed after leave-post")
}

func TestJoinPostInvalidID(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, "voter-token")

	require.NoError(t, websocket.JSON.Send(conn, clientFrame{Action: actionJoinPost, PostID: "not-a-uuid"}))
	ev := receiveFrame(t, conn)
	assert.Equal(t, "error", ev.Type)
}

func TestAdminTopicRequiresPrivilegedRole(t *testing.T) {
	env := newWSEnv(t)

	voter := env.dial(t, "voter-token")
	require.NoError(t, websocket.JSON.Send(voter, clientFrame{Action: actionJoinAdmin}))
	ev := receiveFrame(t, voter)
	assert.Equal(t, "error", ev.Type)

	admin := env.dial(t, "admin-token")
	require.NoError(t, websocket.JSON.Send(admin, clientFrame{Action: actionJoinAdmin}))
	env.publishUntilDelivered(t, realtime.TopicAdmin, realtime.Event{Type: realtime.EventAdminNotification})
	assert.Equal(t, realtime.EventAdminNotification, receiveFrame(t, admin).Type)
}

func TestUnknownActionGetsErrorFrame(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, "voter-token")

	require.NoError(t, websocket.JSON.Send(conn, clientFrame{Action: "subscribe-everything"}))
	ev := receiveFrame(t, conn)
	assert.Equal(t, "error", ev.Type)
}
