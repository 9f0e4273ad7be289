package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/realtime"
	"golang.org/x/net/websocket"
)

// Client subscription actions.
const (
	actionJoinVoting  = "join-voting"
	actionJoinResults = "join-results"
	actionJoinPost    = "join-post"
	actionLeavePost   = "leave-post"
	actionJoinAdmin   = "join-admin"
)

// Authorizer validates access tokens for websocket upgrades.
type Authorizer interface {
	ParseToken(tokenString string) (uuid.UUID, domain.Role, error)
}

type clientFrame struct {
	Action string `json:"action"`
	PostID string `json:"post_id,omitempty"`
}

type roleContextKey struct{}

// peer serializes all writes to one connection. The hub guarantees
// per-session ordering; a single guarded encoder keeps it on the wire.
type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func (p *peer) write(ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(ev)
}

// NewHandler mounts the hub behind a token-checked websocket endpoint.
func NewHandler(hub *realtime.Hub, auth Authorizer, log *slog.Logger) http.Handler {
	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		role, _ := conn.Request().Context().Value(roleContextKey{}).(domain.Role)
		serveConn(conn, hub, role, log)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		token := accessTokenFromRequest(r)
		if token == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		_, role, err := auth.ParseToken(token)
		if err != nil {
			log.Warn("websocket unauthorized", "remote", r.RemoteAddr, "error", err)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		r = r.WithContext(context.WithValue(r.Context(), roleContextKey{}, role))
		wsHandler.ServeHTTP(w, r)
	})
}

func serveConn(conn *websocket.Conn, hub *realtime.Hub, role domain.Role, log *slog.Logger) {
	session := hub.Register()
	p := &peer{encoder: json.NewEncoder(conn)}

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		for ev := range session.Events() {
			if err := p.write(ev); err != nil {
				conn.Close()
				return
			}
		}
	}()

	decoder := json.NewDecoder(conn)
	for {
		var frame clientFrame
		if err := decoder.Decode(&frame); err != nil {
			if err != io.EOF {
				log.Debug("websocket read ended", "error", err)
			}
			break
		}
		handleFrame(p, hub, session, role, frame)
	}

	hub.Disconnect(session)
	<-writeDone
}

func handleFrame(p *peer, hub *realtime.Hub, session *realtime.Session, role domain.Role, frame clientFrame) {
	switch frame.Action {
	case actionJoinVoting:
		hub.Join(session, realtime.TopicVoting)
	case actionJoinResults:
		hub.Join(session, realtime.TopicResults)
	case actionJoinPost:
		postID, err := uuid.Parse(frame.PostID)
		if err != nil {
			writeErrorFrame(p, "invalid post_id")
			return
		}
		hub.Join(session, realtime.PostTopic(postID))
	case actionLeavePost:
		if postID, err := uuid.Parse(frame.PostID); err == nil {
			hub.Leave(session, realtime.PostTopic(postID))
		}
	case actionJoinAdmin:
		if role != domain.RoleAdmin && role != domain.RoleICTAdmin {
			writeErrorFrame(p, "admin topic requires a privileged role")
			return
		}
		hub.Join(session, realtime.TopicAdmin)
	default:
		writeErrorFrame(p, "unknown action")
	}
}

func writeErrorFrame(p *peer, message string) {
	_ = p.write(realtime.Event{
		Type:    "error",
		Payload: map[string]string{"message": message},
	})
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
