package rules

import (
	"errors"
	"testing"
	"time"
)

func TestWindowsTruncatesLastSpan(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 17)

	windows, err := Windows(start, end, 7)
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	if len(windows) != 3 {
		t.Fatalf("unexpected window count: %d", len(windows))
	}
	if !windows[0].End.Equal(start.AddDate(0, 0, 7)) {
		t.Fatalf("unexpected first window end: %s", windows[0].End)
	}
	if !windows[2].Start.Equal(start.AddDate(0, 0, 14)) || !windows[2].End.Equal(end) {
		t.Fatalf("last window must be truncated at end, got %+v", windows[2])
	}
}

func TestWindowsContiguous(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 90)

	windows, err := Windows(start, end, 30)
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	for i := 1; i < len(windows); i++ {
		if !windows[i].Start.Equal(windows[i-1].End) {
			t.Fatalf("windows must be contiguous, gap at index %d", i)
		}
	}
}

func TestWindowsRejectsInvertedPeriod(t *testing.T) {
	now := time.Now().UTC()
	if _, err := Windows(now, now, 7); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for empty range, got %v", err)
	}
	if _, err := Windows(now, now.AddDate(0, 0, -1), 7); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for inverted range, got %v", err)
	}
}
