package calculator

import (
	"fmt"
	"iter"
	"strings"
	"time"
)

// Window is one hourly aggregation bucket, [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return w.Start.Format(time.RFC3339) + " - " + w.End.Format(time.RFC3339)
}

// WindowStrategy decides how the last window is bounded.
type WindowStrategy int

const (
	// WindowOverrun keeps every window a full hour, so the last one may end
	// after the requested period and read data past it.
	WindowOverrun WindowStrategy = iota
	// WindowStrict clamps the last window's end to the end of the period.
	WindowStrict
)

func ParseWindowStrategy(s string) (WindowStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overrun":
		return WindowOverrun, nil
	case "strict":
		return WindowStrict, nil
	}
	return 0, fmt.Errorf("unknown window strategy %q", s)
}

func (s WindowStrategy) String() string {
	if s == WindowStrict {
		return "strict"
	}
	return "overrun"
}

// Windows yields consecutive hourly windows covering [from, to). The first
// window starts at the top of the hour containing from, in from's location.
// Iteration continues while a window's start is before to.
func Windows(from, to time.Time, strategy WindowStrategy) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		if !from.Before(to) {
			return
		}
		for start := truncateToHour(from); start.Before(to); start = start.Add(time.Hour) {
			end := start.Add(time.Hour)
			if strategy == WindowStrict && end.After(to) {
				end = to
			}
			if !yield(Window{Start: start, End: end}) {
				return
			}
		}
	}
}

// truncateToHour drops the wall-clock minutes and below. time.Truncate works
// on absolute time and would be wrong for zones with half-hour offsets.
func truncateToHour(t time.Time) time.Time {
	return t.Add(-(time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())))
}
