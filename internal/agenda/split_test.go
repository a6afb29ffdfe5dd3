package agenda

import (
	"errors"
	"testing"
	"time"

	"classboard/pkg/types"
)

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func testEvent(start, end time.Time) types.Event {
	return types.Event{
		ID:    "E1",
		Name:  "Lecture",
		Start: start,
		End:   end,
	}
}

func TestSplit_SameDayReturnsSingleSegment(t *testing.T) {
	event := testEvent(utc(2024, time.January, 1, 9, 0), utc(2024, time.January, 1, 17, 30))

	segments, err := Split(event)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segments))
	}
	seg := segments[0]
	if !seg.Start.Equal(event.Start) || !seg.End.Equal(event.End) {
		t.Errorf("Segment %v-%v does not equal event %v-%v", seg.Start, seg.End, event.Start, event.End)
	}
	if seg.ID != event.ID || seg.Name != event.Name {
		t.Errorf("Segment lost event identity: %+v", seg)
	}
}

func TestSplit_ZeroDurationEvent(t *testing.T) {
	at := utc(2024, time.March, 10, 12, 0)
	segments, err := Split(testEvent(at, at))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segments))
	}
}

func TestSplit_MultiDayTilesRangeExactly(t *testing.T) {
	event := testEvent(utc(2024, time.January, 1, 18, 0), utc(2024, time.January, 3, 6, 0))

	segments, err := Split(event)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(segments))
	}

	if !segments[0].Start.Equal(event.Start) {
		t.Errorf("First segment start %v != event start %v", segments[0].Start, event.Start)
	}
	if !segments[len(segments)-1].End.Equal(event.End) {
		t.Errorf("Last segment end %v != event end %v", segments[len(segments)-1].End, event.End)
	}

	// Interior boundaries are the UTC midnights, shared between neighbors.
	for i := 1; i < len(segments); i++ {
		if !segments[i].Start.Equal(segments[i-1].End) {
			t.Errorf("Gap or overlap between segment %d and %d: %v vs %v",
				i-1, i, segments[i-1].End, segments[i].Start)
		}
		boundary := segments[i].Start
		if boundary.Hour() != 0 || boundary.Minute() != 0 || boundary.Second() != 0 {
			t.Errorf("Segment %d does not start at UTC midnight: %v", i, boundary)
		}
	}
}

func TestSplit_SpanningNDays(t *testing.T) {
	for n := 2; n <= 10; n++ {
		start := utc(2024, time.June, 1, 13, 0)
		end := start.AddDate(0, 0, n-1).Add(2 * time.Hour) // touches n UTC days

		segments, err := Split(testEvent(start, end))
		if err != nil {
			t.Fatalf("Split failed for n=%d: %v", n, err)
		}
		if len(segments) != n {
			t.Errorf("Expected %d segments for %d-day event, got %d", n, n, len(segments))
		}
		for i := 1; i < len(segments); i++ {
			if segments[i].Start.Before(segments[i-1].Start) {
				t.Errorf("Segments out of order at index %d", i)
			}
			if !segments[i].Start.Equal(segments[i-1].End) {
				t.Errorf("Tiling broken at index %d", i)
			}
		}
	}
}

func TestSplit_EndExactlyAtMidnight(t *testing.T) {
	event := testEvent(utc(2024, time.January, 1, 12, 0), utc(2024, time.January, 3, 0, 0))

	segments, err := Split(event)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	// The terminal midnight boundary produces a final zero-length segment.
	last := segments[len(segments)-1]
	if !last.End.Equal(event.End) {
		t.Errorf("Last segment end %v != event end %v", last.End, event.End)
	}
	if !segments[0].Start.Equal(event.Start) {
		t.Errorf("First segment start %v != event start %v", segments[0].Start, event.Start)
	}
	for i := 1; i < len(segments); i++ {
		if !segments[i].Start.Equal(segments[i-1].End) {
			t.Errorf("Tiling broken at index %d", i)
		}
	}
}

func TestSplit_NonUTCInputNormalized(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 03:00+05:00 is 22:00 UTC the previous day.
	start := time.Date(2024, time.February, 2, 3, 0, 0, 0, loc)
	end := time.Date(2024, time.February, 2, 6, 0, 0, 0, loc)

	segments, err := Split(testEvent(start, end))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments across the UTC boundary, got %d", len(segments))
	}
	if !segments[0].End.Equal(utc(2024, time.February, 2, 0, 0)) {
		t.Errorf("Expected first segment to end at UTC midnight, got %v", segments[0].End)
	}
}

func TestSplit_InvertedRangeRejected(t *testing.T) {
	event := testEvent(utc(2024, time.January, 2, 0, 0), utc(2024, time.January, 1, 0, 0))

	if _, err := Split(event); !errors.Is(err, ErrInvertedRange) {
		t.Errorf("Expected ErrInvertedRange, got %v", err)
	}
}
