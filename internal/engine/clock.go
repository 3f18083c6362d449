package engine

import "time"

// DayWindow returns the half-open interval [startOfDay, nextDay) containing t,
// resolved in loc. Capacity counting, queue processing and the dashboard all
// derive calendar days from this one function so day boundaries always agree.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
