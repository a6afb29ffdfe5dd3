package agenda

import (
	"time"

	"classboard/pkg/types"
)

// Split projects an event onto single UTC calendar days.
//
// An event starting and ending on the same UTC day yields exactly one segment
// equal to the event. A longer event is walked along UTC midnights: the first
// segment starts at the original start, every following segment starts at a
// midnight boundary, and each segment ends at the next midnight except the
// last, which ends at the original end. The segments tile [start, end] exactly,
// in chronological order.
//
// Inverted ranges (end before start) are rejected with ErrInvertedRange.
func Split(event types.Event) ([]types.DaySegment, error) {
	if event.End.Before(event.Start) {
		return nil, ErrInvertedRange
	}

	start := event.Start.UTC()
	end := event.End.UTC()

	if sameUTCDay(start, end) {
		return []types.DaySegment{segment(event, start, end)}, nil
	}

	var segments []types.DaySegment
	cur := start
	for {
		next := nextUTCMidnight(cur)
		if next.After(end) {
			segments = append(segments, segment(event, cur, end))
			return segments, nil
		}
		segments = append(segments, segment(event, cur, next))
		cur = next
	}
}

// segment copies the source event's identity and metadata with clamped bounds.
func segment(event types.Event, start, end time.Time) types.DaySegment {
	seg := types.DaySegment{Event: event}
	seg.Start = start
	seg.End = end
	return seg
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func nextUTCMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
