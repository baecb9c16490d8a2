package utils

import "time"

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekBounds returns Monday 00:00:00 and Sunday 23:59:59 of the week holding t.
func WeekBounds(t time.Time) (start, end time.Time) {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	start = day.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 7).Add(-time.Second)
	return start, end
}
