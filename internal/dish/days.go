package dish

import (
	"strconv"
	"time"
)

var dayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// WeekdayIndex maps a moment to 0..6 with Monday as 0.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DayLabel is the label shown next to the dish at the given list position.
// With days enabled the head dish is today's dinner and each following
// position is the next day; otherwise positions are numbered from 1.
func DayLabel(index int, today time.Time, days bool) string {
	if !days {
		return strconv.Itoa(index + 1)
	}
	return dayNames[(WeekdayIndex(today)+index)%7]
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b in a's location. It is
// negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	from := StartOfDay(a)
	to := StartOfDay(b.In(a.Location()))
	// Noon avoids DST shifts turning 24h into 23h or 25h.
	from = from.Add(12 * time.Hour)
	to = to.Add(12 * time.Hour)
	return int(to.Sub(from).Round(24*time.Hour) / (24 * time.Hour))
}

// IndexForDate returns the list position scheduled for the given date when
// the head dish is today's dinner, or -1 when the date is in the past.
func IndexForDate(today, date time.Time) int {
	n := DaysBetween(today, date)
	if n < 0 {
		return -1
	}
	return n
}
