package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"classboard/internal/auth"
	"classboard/pkg/types"
)

const handlerTestSecret = "handler-test-secret"

type fakeSink struct {
	mu           sync.Mutex
	dispatched   []*types.Message
	disconnected chan struct{}
}

func newFakeSink() *fakeSink {
	return &fakeSink{disconnected: make(chan struct{}, 1)}
}

func (s *fakeSink) Dispatch(conn *Connection, msg *types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatched = append(s.dispatched, msg)
	return nil
}

func (s *fakeSink) Disconnect(conn *Connection) {
	select {
	case s.disconnected <- struct{}{}:
	default:
	}
}

func (s *fakeSink) messages() []*types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Message, len(s.dispatched))
	copy(out, s.dispatched)
	return out
}

func signTestToken(t *testing.T, userID string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(handlerTestSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

func newHandlerTestServer(t *testing.T, sink MessageSink) *httptest.Server {
	t.Helper()

	handler := NewHandler(sink, auth.NewVerifier(handlerTestSecret), nil)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(func() { server.Close() })
	return server
}

func TestHandler_MissingTokenRejected(t *testing.T) {
	server := newHandlerTestServer(t, newFakeSink())

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 for missing token, got %d", resp.StatusCode)
	}
}

func TestHandler_InvalidTokenRejected(t *testing.T) {
	server := newHandlerTestServer(t, newFakeSink())

	resp, err := http.Get(server.URL + "?token=not-a-jwt")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 for invalid token, got %d", resp.StatusCode)
	}
}

func TestHandler_DispatchesInboundFrames(t *testing.T) {
	sink := newFakeSink()
	server := newHandlerTestServer(t, sink)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + signTestToken(t, "teacher-1")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	frame, _ := json.Marshal(map[string]interface{}{
		"event": "join-class",
		"data":  map[string]string{"classId": "class-1"},
	})
	if err := client.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if msgs := sink.messages(); len(msgs) == 1 {
			if msgs[0].Event != types.KindJoinClass {
				t.Errorf("Expected event %q, got %q", types.KindJoinClass, msgs[0].Event)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("Frame never reached the sink")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestHandler_MalformedFrameDroppedLocally(t *testing.T) {
	sink := newFakeSink()
	server := newHandlerTestServer(t, sink)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + signTestToken(t, "student-1")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	if err := client.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if msgs := sink.messages(); len(msgs) != 0 {
		t.Errorf("Malformed frame should never reach the sink, got %d messages", len(msgs))
	}
}

func TestHandler_DisconnectOnClose(t *testing.T) {
	sink := newFakeSink()
	server := newHandlerTestServer(t, sink)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + signTestToken(t, "student-1")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	client.Close()

	select {
	case <-sink.disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("Disconnect was never invoked after the client closed")
	}
}
