// Package week computes the Monday-to-Sunday reporting window used as the
// period marker for weekly updates.
package week

import (
	"fmt"
	"time"
)

// Marker is the layout of the week-start marker stored on records.
const Marker = "2006-01-02"

// Window is one reporting week.
type Window struct {
	Start time.Time
	End   time.Time
}

// Of returns the reporting week containing t (Monday through Sunday).
func Of(t time.Time) Window {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(t.Weekday()) + 6) % 7
	start := t.AddDate(0, 0, -offset)
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// StartMarker returns the week-start date as stored on records.
func (w Window) StartMarker() string {
	return w.Start.Format(Marker)
}

// EndMarker returns the week-end date for range queries.
func (w Window) EndMarker() string {
	return w.End.Format(Marker)
}

// Label returns the human-readable week label shown on dashboards,
// e.g. "Week of August 31 – 6, 2026".
func (w Window) Label() string {
	return fmt.Sprintf("Week of %s %d – %d, %d",
		w.Start.Month(), w.Start.Day(), w.End.Day(), w.End.Year())
}
