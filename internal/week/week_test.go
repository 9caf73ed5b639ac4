package week

import (
	"testing"
	"time"
)

func TestOfMidWeek(t *testing.T) {
	// Wednesday, January 14 2026.
	w := Of(time.Date(2026, 1, 14, 15, 30, 0, 0, time.UTC))
	if got := w.StartMarker(); got != "2026-01-12" {
		t.Fatalf("start = %q, want 2026-01-12", got)
	}
	if got := w.EndMarker(); got != "2026-01-18" {
		t.Fatalf("end = %q, want 2026-01-18", got)
	}
	if got := w.Label(); got != "Week of January 12 – 18, 2026" {
		t.Fatalf("label = %q", got)
	}
}

func TestOfMonday(t *testing.T) {
	w := Of(time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC))
	if got := w.StartMarker(); got != "2026-01-12" {
		t.Fatalf("start = %q, want 2026-01-12", got)
	}
}

func TestOfSunday(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	w := Of(time.Date(2026, 1, 18, 23, 59, 0, 0, time.UTC))
	if got := w.StartMarker(); got != "2026-01-12" {
		t.Fatalf("start = %q, want 2026-01-12", got)
	}
}

func TestOfCrossMonth(t *testing.T) {
	// Week spanning August into September keeps the original label shape.
	w := Of(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	if got := w.StartMarker(); got != "2026-08-31" {
		t.Fatalf("start = %q, want 2026-08-31", got)
	}
	if got := w.EndMarker(); got != "2026-09-06" {
		t.Fatalf("end = %q, want 2026-09-06", got)
	}
	if got := w.Label(); got != "Week of August 31 – 6, 2026" {
		t.Fatalf("label = %q", got)
	}
}
