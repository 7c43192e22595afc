package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for all scenario dates (MM/DD/YYYY).
const DateLayout = "01/02/2006"

// DateWindow is an inclusive date range used to fence search results.
type DateWindow struct {
	Start string `json:"start" toml:"start"`
	End   string `json:"end" toml:"end"`
}

func (w DateWindow) String() string {
	return w.Start + "-" + w.End
}

// Bounds parses the window edges. The end bound is pushed to the last
// instant of its day so an inclusive comparison works with timestamps.
func (w DateWindow) Bounds() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, strings.TrimSpace(w.Start))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse window start %q: %w", w.Start, err)
	}
	end, err := time.Parse(DateLayout, strings.TrimSpace(w.End))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse window end %q: %w", w.End, err)
	}
	end = end.Add(24*time.Hour - time.Nanosecond)
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("window %s ends before it starts", w)
	}
	return start, end, nil
}

// Contains reports whether t falls inside the window. Unparseable windows
// contain nothing.
func (w DateWindow) Contains(t time.Time) bool {
	start, end, err := w.Bounds()
	if err != nil {
		return false
	}
	return !t.Before(start) && !t.After(end)
}

// ParseDate parses a scenario date in the MM/DD/YYYY wire format.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q (want MM/DD/YYYY): %w", s, err)
	}
	return t, nil
}
