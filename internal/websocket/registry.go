package websocket

import "sync"

// Registry maps class identifiers to the set of currently connected clients.
// Rooms are created on first join; empty rooms are evicted, which is not
// observable through MembersOf.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Connection]struct{} // classID -> member set
	joined map[*Connection]map[string]struct{} // connection -> joined classIDs
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[*Connection]struct{}),
		joined: make(map[*Connection]map[string]struct{}),
	}
}

// Join adds conn to the room for classID. Joining a room the connection is
// already a member of is a no-op success.
func (r *Registry) Join(classID string, conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[classID]
	if !ok {
		room = make(map[*Connection]struct{})
		r.rooms[classID] = room
	}
	room[conn] = struct{}{}

	rooms, ok := r.joined[conn]
	if !ok {
		rooms = make(map[string]struct{})
		r.joined[conn] = rooms
	}
	rooms[classID] = struct{}{}
	return nil
}

// Leave removes conn from the room for classID. Removing a non-member is a
// no-op.
func (r *Registry) Leave(classID string, conn *Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(classID, conn)
}

func (r *Registry) leaveLocked(classID string, conn *Connection) {
	if room, ok := r.rooms[classID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(r.rooms, classID)
		}
	}
	if rooms, ok := r.joined[conn]; ok {
		delete(rooms, classID)
		if len(rooms) == 0 {
			delete(r.joined, conn)
		}
	}
}

// MembersOf returns a snapshot of the room for classID. Unknown rooms yield an
// empty slice, never an error. The snapshot is safe to iterate while other
// goroutines join and leave.
func (r *Registry) MembersOf(classID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[classID]
	members := make([]*Connection, 0, len(room))
	for conn := range room {
		members = append(members, conn)
	}
	return members
}

// JoinedRooms returns the class identifiers conn is currently a member of.
func (r *Registry) JoinedRooms(conn *Connection) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.joined[conn]))
	for classID := range r.joined[conn] {
		rooms = append(rooms, classID)
	}
	return rooms
}

// RemoveConnection removes conn from every room it had joined. Called on
// disconnect; afterwards no room holds a reference to conn.
func (r *Registry) RemoveConnection(conn *Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for classID := range r.joined[conn] {
		r.leaveLocked(classID, conn)
	}
	delete(r.joined, conn)
}

// Stats reports room and connection counts for monitoring.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"active_rooms":       len(r.rooms),
		"joined_connections": len(r.joined),
	}
}
