package dish

import (
	"testing"
	"time"
)

func TestWeekdayIndex(t *testing.T) {
	// 2026-01-12 is a Monday.
	monday := time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		if got := WeekdayIndex(day); got != i {
			t.Errorf("WeekdayIndex(%s) = %d, want %d", day.Weekday(), got, i)
		}
	}
}

func TestDayLabel(t *testing.T) {
	saturday := time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		index int
		days  bool
		want  string
	}{
		{0, false, "1"},
		{4, false, "5"},
		{0, true, "Saturday"},
		{1, true, "Sunday"},
		{2, true, "Monday"},
		{9, true, "Monday"},
	}

	for _, tt := range tests {
		if got := DayLabel(tt.index, saturday, tt.days); got != tt.want {
			t.Errorf("DayLabel(%d, days=%v) = %q, want %q", tt.index, tt.days, got, tt.want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	late := time.Date(2026, 1, 10, 23, 59, 0, 0, loc)
	early := time.Date(2026, 1, 11, 0, 1, 0, 0, loc)

	if got := DaysBetween(late, early); got != 1 {
		t.Errorf("DaysBetween across midnight = %d, want 1", got)
	}
	if got := DaysBetween(early, late); got != -1 {
		t.Errorf("DaysBetween backwards = %d, want -1", got)
	}
	if got := DaysBetween(early, early.Add(10*time.Hour)); got != 0 {
		t.Errorf("DaysBetween same day = %d, want 0", got)
	}
}

func TestIndexForDate(t *testing.T) {
	today := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)

	if got := IndexForDate(today, today.Add(3*time.Hour)); got != 0 {
		t.Errorf("IndexForDate(today) = %d, want 0", got)
	}
	if got := IndexForDate(today, today.AddDate(0, 0, 4)); got != 4 {
		t.Errorf("IndexForDate(+4d) = %d, want 4", got)
	}
	if got := IndexForDate(today, today.AddDate(0, 0, -1)); got != -1 {
		t.Errorf("IndexForDate(yesterday) = %d, want -1", got)
	}
}
