package interfaces

import (
	"context"

	"classboard/pkg/types"
)

// EventStore is the storage collaborator consumed by the agenda aggregator and
// the HTTP API. Implementations own persistence, filtering, and last-write-wins
// semantics; the core only reads bounded snapshots and forwards writes.
type EventStore interface {
	// Personal events
	CreatePersonalEvent(ctx context.Context, event *types.PersonalEvent) error
	UpdatePersonalEvent(ctx context.Context, event *types.PersonalEvent) error
	DeletePersonalEvent(ctx context.Context, eventID, userID string) error
	GetPersonalEvent(ctx context.Context, eventID string) (*types.PersonalEvent, error)
	PersonalEventsInWindow(ctx context.Context, userID string, window types.WeekWindow) ([]types.PersonalEvent, error)

	// Class events
	CreateClassEvent(ctx context.Context, event *types.ClassEvent) error
	UpdateClassEvent(ctx context.Context, event *types.ClassEvent) error
	DeleteClassEvent(ctx context.Context, eventID string) error
	GetClassEvent(ctx context.Context, eventID string) (*types.ClassEvent, error)
	// ClassEventsInWindow returns events of every class where userID is a
	// teacher or a student, intersecting the window.
	ClassEventsInWindow(ctx context.Context, userID string, window types.WeekWindow) ([]types.ClassEvent, error)

	// Class membership
	AddClassMember(ctx context.Context, member *types.Member) error
	RemoveClassMember(ctx context.Context, classID, userID string) error
	ClassMembers(ctx context.Context, classID string) ([]types.Member, error)

	HealthCheck(ctx context.Context) error
}
