package model

import "time"

// Window is the analysis date window. Start and End are inclusive civil
// dates (midnight UTC).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls on a date inside the window.
func (w Window) Contains(t time.Time) bool {
	d := t.UTC().Truncate(24 * time.Hour)
	return !d.Before(w.Start) && !d.After(w.End)
}

// ContainsLoose reports whether t falls inside the window widened by one day
// on each side. Event-time-scoped feeds use this tolerance so signals whose
// timestamps straddle midnight still attach to in-window orders.
func (w Window) ContainsLoose(t time.Time) bool {
	d := t.UTC().Truncate(24 * time.Hour)
	return !d.Before(w.Start.AddDate(0, 0, -1)) && !d.After(w.End.AddDate(0, 0, 1))
}
