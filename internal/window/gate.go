package window

import "time"

// Window is the configured daily activity window. A nil bound is open.
type Window struct {
	Start *ClockTime
	End   *ClockTime
}

// New builds a window from optional bounds.
func New(start, end *ClockTime) Window {
	return Window{Start: cloneClock(start), End: cloneClock(end)}
}

// Always reports whether the window has no bounds at all.
func (w Window) Always() bool {
	return w.Start == nil && w.End == nil
}

// Wraps reports whether the window crosses midnight.
func (w Window) Wraps() bool {
	return w.Start != nil && w.End != nil && w.Start.Minutes() > w.End.Minutes()
}

// IsActive reports whether now falls inside the window.
func (w Window) IsActive(now time.Time) bool {
	return IsActive(now, w.Start, w.End)
}

// String renders the window as "always", "HHMM-HHMM", "HHMM-" or "-HHMM".
func (w Window) String() string {
	if w.Always() {
		return "always"
	}
	var s, e string
	if w.Start != nil {
		s = w.Start.String()
	}
	if w.End != nil {
		e = w.End.String()
	}
	return s + "-" + e
}

// IsActive is the gate itself. Bounds are inclusive at minute resolution.
//
//   - no bounds: always active
//   - start <= end: active iff start <= now <= end
//   - start > end: active iff now >= start or now <= end
//   - one bound: the other side is open until (or from) midnight
func IsActive(now time.Time, start, end *ClockTime) bool {
	cur := Of(now).Minutes()
	switch {
	case start == nil && end == nil:
		return true
	case end == nil:
		return cur >= start.Minutes()
	case start == nil:
		return cur <= end.Minutes()
	case start.Minutes() <= end.Minutes():
		return cur >= start.Minutes() && cur <= end.Minutes()
	default:
		return cur >= start.Minutes() || cur <= end.Minutes()
	}
}

func cloneClock(c *ClockTime) *ClockTime {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
