package agenda

import (
	"context"
	"fmt"

	"classboard/pkg/interfaces"
	"classboard/pkg/types"
)

// Service merges personal and class-scoped calendar events over a week window.
// It never mutates stored events and performs no retries; storage failures are
// surfaced to the caller as-is for its own retry policy.
type Service struct {
	store interfaces.EventStore
}

func NewService(store interfaces.EventStore) *Service {
	return &Service{store: store}
}

// Result groups events by origin. The two lists are never merged: personal
// events are editable only by their owner, class events only by class
// teachers, and downstream consumers render them accordingly.
type Result struct {
	Personal []types.PersonalEvent `json:"personal"`
	Class    []types.ClassEvent    `json:"class"`
}

// DayBucket holds the day-grid projection of one calendar day, grouped by
// origin like Result.
type DayBucket struct {
	Personal []types.DaySegment `json:"personal"`
	Class    []types.DaySegment `json:"class"`
}

// Agenda returns every personal event owned by userID and every event of a
// class where userID is teacher or student, restricted to the week window
// resolved from the token. An empty identity yields ErrUnauthorized, a bad
// token ErrInvalidRange.
func (s *Service) Agenda(ctx context.Context, userID, weekStartToken string) (*Result, error) {
	if userID == "" {
		return nil, interfaces.ErrUnauthorized
	}

	window, err := ResolveWeek(weekStartToken)
	if err != nil {
		return nil, err
	}

	personal, err := s.store.PersonalEventsInWindow(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("agenda: personal events: %w", err)
	}

	class, err := s.store.ClassEventsInWindow(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("agenda: class events: %w", err)
	}

	if personal == nil {
		personal = []types.PersonalEvent{}
	}
	if class == nil {
		class = []types.ClassEvent{}
	}
	return &Result{Personal: personal, Class: class}, nil
}

// Grid lays the agenda out on a day grid: every event is split into per-day
// segments and bucketed under its UTC day key ("2006-01-02").
func (s *Service) Grid(ctx context.Context, userID, weekStartToken string) (map[string]*DayBucket, error) {
	result, err := s.Agenda(ctx, userID, weekStartToken)
	if err != nil {
		return nil, err
	}

	grid := make(map[string]*DayBucket)
	bucket := func(day string) *DayBucket {
		b, ok := grid[day]
		if !ok {
			b = &DayBucket{}
			grid[day] = b
		}
		return b
	}

	for _, event := range result.Personal {
		segments, err := Split(event.Event)
		if err != nil {
			return nil, fmt.Errorf("agenda: split personal event %s: %w", event.ID, err)
		}
		for _, seg := range segments {
			b := bucket(dayKey(seg))
			b.Personal = append(b.Personal, seg)
		}
	}
	for _, event := range result.Class {
		segments, err := Split(event.Event)
		if err != nil {
			return nil, fmt.Errorf("agenda: split class event %s: %w", event.ID, err)
		}
		for _, seg := range segments {
			b := bucket(dayKey(seg))
			b.Class = append(b.Class, seg)
		}
	}
	return grid, nil
}

func dayKey(seg types.DaySegment) string {
	return seg.Start.UTC().Format("2006-01-02")
}
