package types

import (
	"encoding/json"
	"time"
)

// Inbound message kinds accepted by the broadcast hub. Names are part of the
// wire protocol and must not change.
const (
	KindJoinClass        = "join-class"
	KindAssignmentCreate = "assignment-create"
	KindAssignmentUpdate = "assignment-update"
	KindAssignmentDelete = "assignment-delete"
	KindSubmissionUpdate = "submission-update"
	KindNewAnnouncement  = "new-announcement"
	KindSectionCreate    = "section-create"
	KindSectionUpdate    = "section-update"
	KindSectionDelete    = "section-delete"
	KindMemberUpdate     = "member-update"
	KindMemberDelete     = "member-delete"
	KindAttendanceUpdate = "attendance-update"
)

// Outbound message kinds emitted to room members.
const (
	KindJoinedClass         = "joined-class"
	KindAssignmentCreated   = "assignment-created"
	KindAssignmentUpdated   = "assignment-updated"
	KindAssignmentDeleted   = "assignment-deleted"
	KindSubmissionUpdated   = "submission-updated"
	KindAnnouncementCreated = "announcement-created"
	KindSectionCreated      = "section-created"
	KindSectionUpdated      = "section-updated"
	KindSectionDeleted      = "section-deleted"
	KindMemberUpdated       = "member-updated"
	KindMemberDeleted       = "member-deleted"
	KindAttendanceUpdated   = "attendance-updated"
)

// Class membership roles.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Event is a calendar entry. Start and End are UTC instants; End is expected
// to be >= Start (callers own that invariant, the splitter rejects violations).
type Event struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Remark   string    `json:"remark,omitempty"`
	Location string    `json:"location,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// PersonalEvent is owned by exactly one user and visible only to that user.
type PersonalEvent struct {
	Event
	UserID string `json:"userId"`
}

// ClassEvent belongs to one class and is visible to every teacher and student
// of that class.
type ClassEvent struct {
	Event
	ClassID string `json:"classId"`
}

// DaySegment is the projection of an Event onto a single UTC calendar day.
// Segments are display artifacts, never persisted; several segments share the
// identity of their source event.
type DaySegment struct {
	Event
}

// WeekWindow is a half-open UTC instant range [Start, Start+7d), recomputed
// per request from a caller-supplied week start token.
type WeekWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Member is one class roster entry.
type Member struct {
	ClassID string `json:"classId"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
}

// Message is one wire frame. Data carries the opaque payload of the mutation;
// the hub relays it without interpreting anything beyond the keys required by
// the kind tag.
type Message struct {
	Event string                     `json:"event"`
	Data  map[string]json.RawMessage `json:"data"`
}

// ClassID extracts the classId field from the payload. The second return is
// false when the field is absent, not a string, or empty.
func (m *Message) ClassID() (string, bool) {
	raw, ok := m.Data["classId"]
	if !ok {
		return "", false
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}
