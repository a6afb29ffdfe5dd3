package agenda

import (
	"fmt"
	"time"

	"classboard/pkg/types"
)

// weekLength is the extent of every agenda window.
const weekLength = 7 * 24 * time.Hour

// Week start tokens are ISO-8601 dates or date-times.
var weekTokenLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ResolveWeek parses a week start token into a half-open UTC window
// [start, start+7d). Unparseable tokens yield ErrInvalidRange.
func ResolveWeek(token string) (types.WeekWindow, error) {
	for _, layout := range weekTokenLayouts {
		parsed, err := time.Parse(layout, token)
		if err != nil {
			continue
		}
		start := parsed.UTC()
		return types.WeekWindow{Start: start, End: start.Add(weekLength)}, nil
	}
	return types.WeekWindow{}, fmt.Errorf("%w: %q", ErrInvalidRange, token)
}
