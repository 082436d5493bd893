package bucket

import "time"

// WeekRange returns the ISO week holding t: Monday 00:00 UTC through the last
// millisecond of Sunday.
func WeekRange(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	offset := (int(u.Weekday()) + 6) % 7
	start := time.Date(u.Year(), u.Month(), u.Day()-offset, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7).Add(-time.Millisecond)
	return start, end
}
