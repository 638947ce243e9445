package domain

import "time"

// DateOf returns the civil date of t (as observed in t's own location),
// represented as midnight UTC. Review due dates are whole days, so all
// comparisons happen on values produced by this function.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date that is days calendar days after date.
func AddDays(date time.Time, days int) time.Time {
	return DateOf(date).AddDate(0, 0, days)
}
