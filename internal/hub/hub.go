package hub

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"classboard/internal/router"
	"classboard/internal/websocket"
	"classboard/pkg/types"
)

// messageBuffer absorbs classroom-scale message bursts without blocking the
// per-connection read pumps.
const messageBuffer = 1000

// Hub is the connection-handling coordinator. All inbound messages funnel
// through one processing goroutine, so events targeting the same room are
// delivered to all members in hub-arrival order.
type Hub struct {
	messageCh  chan *MessageContext
	shutdownCh chan struct{}

	registry *websocket.Registry
	router   *router.Router

	running bool
	mu      sync.RWMutex
}

// MessageContext pairs an inbound message with the connection it arrived on.
type MessageContext struct {
	Sender     *websocket.Connection
	Message    *types.Message
	ReceivedAt time.Time
}

func NewHub(registry *websocket.Registry, router *router.Router) *Hub {
	return &Hub{
		messageCh: make(chan *MessageContext, messageBuffer),
		registry:  registry,
		router:    router,
	}
}

// Start begins hub processing. A stopped hub can be started again; each run
// gets a fresh shutdown channel.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrHubAlreadyRunning
	}
	h.running = true
	h.shutdownCh = make(chan struct{})
	shutdownCh := h.shutdownCh
	h.mu.Unlock()

	log.Println("Starting broadcast hub...")
	go h.run(ctx, shutdownCh)
	return nil
}

// Stop shuts down hub processing. Connections already queued stay queued; the
// run loop exits after the shutdown signal is observed.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return ErrHubNotRunning
	}
	h.running = false

	log.Println("Stopping broadcast hub...")
	close(h.shutdownCh)
	return nil
}

// Dispatch queues one inbound message for routing. The enqueue is
// non-blocking; under sustained overload messages are dropped with an error
// rather than stalling the caller's read pump.
func (h *Hub) Dispatch(sender *websocket.Connection, msg *types.Message) error {
	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrHubNotRunning
	}
	h.mu.RUnlock()

	mctx := &MessageContext{
		Sender:     sender,
		Message:    msg,
		ReceivedAt: time.Now(),
	}

	select {
	case h.messageCh <- mctx:
		return nil
	default:
		return ErrMessageChannelFull
	}
}

// Disconnect removes the connection from every room it had joined and releases
// the transport. The removal is synchronous: when Disconnect returns, no room
// holds the connection.
func (h *Hub) Disconnect(conn *websocket.Connection) {
	if conn == nil {
		return
	}
	h.registry.RemoveConnection(conn)
	if err := conn.Close(); err != nil {
		log.Printf("Failed to close connection for %s: %v", conn.GetUserID(), err)
	}
}

// run is the single processing loop. Per-room ordering follows from every
// message passing through here exactly once.
func (h *Hub) run(ctx context.Context, shutdownCh <-chan struct{}) {
	defer log.Println("Hub processing stopped")

	for {
		select {
		case mctx := <-h.messageCh:
			h.handleMessage(mctx)
		case <-shutdownCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleMessage routes one message. Routing failures are local diagnostics;
// malformed payloads are dropped without reaching any other connection and the
// hub keeps processing.
func (h *Hub) handleMessage(mctx *MessageContext) {
	if err := h.router.Route(mctx.Sender, mctx.Message); err != nil {
		if errors.Is(err, types.ErrMalformedPayload) || errors.Is(err, types.ErrUnknownKind) {
			log.Printf("Dropped %q from %s: %v", mctx.Message.Event, mctx.Sender.GetUserID(), err)
			return
		}
		log.Printf("Routing %q from %s failed: %v", mctx.Message.Event, mctx.Sender.GetUserID(), err)
	}
}
