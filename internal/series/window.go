package series

import (
	"fmt"
	"time"
)

// Window is the configured date range of a run.
// Contains treats Start as exclusive and End as inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow parses two YYYY-MM-DD dates.
func NewWindow(start, end string) (Window, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Window{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return Window{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	if e.Before(s) {
		return Window{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether start < day(t) <= end.
func (w Window) Contains(t time.Time) bool {
	d := Day(t)
	return d.After(w.Start) && !d.After(w.End)
}

func (w Window) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}
