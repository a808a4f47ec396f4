package rules

import (
	"errors"
	"time"
)

var ErrInvalidPeriod = errors.New("period end must be after start")

type Window struct {
	Start time.Time
	End   time.Time
}

// Windows splits [start, end) into consecutive spans of the given length in
// days. The last window is truncated so it never extends past end.
func Windows(start, end time.Time, days int) ([]Window, error) {
	if days <= 0 {
		return nil, errors.New("window length must be positive")
	}
	if !end.After(start) {
		return nil, ErrInvalidPeriod
	}

	windows := make([]Window, 0, 4)
	cursor := start
	for cursor.Before(end) {
		next := cursor.AddDate(0, 0, days)
		if next.After(end) {
			next = end
		}
		windows = append(windows, Window{Start: cursor, End: next})
		cursor = next
	}

	return windows, nil
}
