package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"classboard/internal/auth"
	"classboard/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is delegated to the deployment's reverse proxy.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// MessageSink consumes frames read from live connections. Implemented by the
// broadcast hub.
type MessageSink interface {
	Dispatch(conn *Connection, msg *types.Message) error
	Disconnect(conn *Connection)
}

// identityResolver verifies session tokens at accept time. Authentication is
// completed before a connection enters the hub; there is no in-band auth state.
type identityResolver interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// Handler upgrades HTTP requests to websocket connections and pumps inbound
// frames into the hub.
type Handler struct {
	sink     MessageSink
	verifier identityResolver
	config   *Config
}

// NewHandler builds the upgrade handler. A nil config uses the defaults.
func NewHandler(sink MessageSink, verifier identityResolver, config *Config) *Handler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Handler{sink: sink, verifier: verifier, config: config}
}

// HandleWebSocket authenticates the request, upgrades it, and starts the
// connection's read pump.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "Missing auth token", http.StatusUnauthorized)
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "Invalid auth token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn, h.config)
	wsConn.SetIdentity(claims.UserID)

	go h.handleConnection(wsConn)
}

// bearerToken pulls the session token from the Authorization header or, for
// browser websocket clients that cannot set headers, the token query param.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// handleConnection owns the connection for its connected lifetime: heartbeat,
// read pump, and disconnect cleanup.
func (h *Handler) handleConnection(conn *Connection) {
	defer func() {
		// Disconnect must fully clear room membership before completing.
		h.sink.Disconnect(conn)
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout)); err != nil {
		log.Printf("Failed to set read deadline: %v", err)
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	})

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for %s: %v", conn.GetUserID(), err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg types.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed frames are dropped locally, never relayed.
			log.Printf("Dropping malformed frame from %s: %v", conn.GetUserID(), err)
			continue
		}

		if err := h.sink.Dispatch(conn, &msg); err != nil {
			log.Printf("Dropping %s from %s: %v", msg.Event, conn.GetUserID(), err)
		}
	}
}
