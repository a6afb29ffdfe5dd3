package router

import (
	"encoding/json"
	"fmt"
	"log"

	"classboard/internal/websocket"
	"classboard/pkg/types"
)

// Router turns one inbound typed message into deliveries. Mutation kinds are
// re-emitted to every member of the target room, sender included; join-class
// is acknowledged to the joining connection only. The router never interprets
// payload contents beyond the structural checks in Message.Validate.
type Router struct {
	registry *websocket.Registry
}

func NewRouter(registry *websocket.Registry) *Router {
	return &Router{registry: registry}
}

// Route processes one inbound message from sender. A validation error means
// the message is dropped whole; nothing is ever broadcast partially.
func (r *Router) Route(sender *websocket.Connection, msg *types.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if msg.Event == types.KindJoinClass {
		return r.handleJoin(sender, msg)
	}
	return r.broadcast(msg)
}

// handleJoin registers the sender in the room and acknowledges it directly.
// The acknowledgment is never broadcast; on failure the ack carries a null
// class marker so the client can tell the join did not take effect.
func (r *Router) handleJoin(sender *websocket.Connection, msg *types.Message) error {
	classID, _ := msg.ClassID()

	if err := r.registry.Join(classID, sender); err != nil {
		if ackErr := sender.WriteJSON(joinAck(nil)); ackErr != nil {
			log.Printf("Failed to send join failure ack to %s: %v", sender.GetUserID(), ackErr)
		}
		return fmt.Errorf("%w: %v", ErrJoinFailed, err)
	}

	if err := sender.WriteJSON(joinAck(&classID)); err != nil {
		log.Printf("Failed to send join ack to %s: %v", sender.GetUserID(), err)
	}
	return nil
}

// broadcast re-emits the mirrored outbound kind with the unchanged payload to
// every current member of the room. Delivery is best effort and isolated per
// recipient; a failed send never aborts the rest. A room with no members is a
// no-op, not an error.
func (r *Router) broadcast(msg *types.Message) error {
	outbound, ok := types.OutboundKind(msg.Event)
	if !ok {
		return types.ErrUnknownKind
	}

	classID, _ := msg.ClassID()
	frame := &types.Message{Event: outbound, Data: msg.Data}

	for _, member := range r.registry.MembersOf(classID) {
		if err := member.WriteJSON(frame); err != nil {
			log.Printf("Failed to deliver %s to %s: %v", outbound, member.GetUserID(), err)
		}
	}
	return nil
}

func joinAck(classID *string) *types.Message {
	raw := json.RawMessage("null")
	if classID != nil {
		raw, _ = json.Marshal(*classID)
	}
	return &types.Message{
		Event: types.KindJoinedClass,
		Data:  map[string]json.RawMessage{"classId": raw},
	}
}
