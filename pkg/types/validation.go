package types

import "bytes"

// kindSpec describes one inbound message kind: the outbound kind broadcast to
// the room and the payload key that must be present besides classId.
type kindSpec struct {
	outbound    string
	requiredKey string
}

var kindSpecs = map[string]kindSpec{
	KindJoinClass:        {outbound: KindJoinedClass},
	KindAssignmentCreate: {outbound: KindAssignmentCreated, requiredKey: "assignment"},
	KindAssignmentUpdate: {outbound: KindAssignmentUpdated, requiredKey: "assignment"},
	KindAssignmentDelete: {outbound: KindAssignmentDeleted, requiredKey: "assignmentId"},
	KindSubmissionUpdate: {outbound: KindSubmissionUpdated, requiredKey: "submission"},
	KindNewAnnouncement:  {outbound: KindAnnouncementCreated, requiredKey: "announcement"},
	KindSectionCreate:    {outbound: KindSectionCreated, requiredKey: "section"},
	KindSectionUpdate:    {outbound: KindSectionUpdated, requiredKey: "section"},
	KindSectionDelete:    {outbound: KindSectionDeleted, requiredKey: "sectionId"},
	KindMemberUpdate:     {outbound: KindMemberUpdated, requiredKey: "member"},
	KindMemberDelete:     {outbound: KindMemberDeleted, requiredKey: "memberId"},
	KindAttendanceUpdate: {outbound: KindAttendanceUpdated, requiredKey: "attendance"},
}

var jsonNull = []byte("null")

// IsValidKind reports whether kind is one of the accepted inbound kinds.
func IsValidKind(kind string) bool {
	_, ok := kindSpecs[kind]
	return ok
}

// OutboundKind returns the past-participle kind broadcast for an inbound kind.
func OutboundKind(kind string) (string, bool) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return "", false
	}
	return spec.outbound, true
}

// Validate checks the structural requirements of an inbound message: a known
// kind tag, a non-empty classId, and the kind's required payload key. Payload
// contents beyond that are opaque to the hub and deliberately not inspected.
func (m *Message) Validate() error {
	spec, ok := kindSpecs[m.Event]
	if !ok {
		return ErrUnknownKind
	}
	if m.Data == nil {
		return ErrMalformedPayload
	}
	if _, ok := m.ClassID(); !ok {
		return ErrMalformedPayload
	}
	if spec.requiredKey != "" {
		raw, ok := m.Data[spec.requiredKey]
		if !ok || len(raw) == 0 || bytes.Equal(raw, jsonNull) {
			return ErrMalformedPayload
		}
	}
	return nil
}
