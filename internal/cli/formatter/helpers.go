package formatter

import (
	"fmt"
	"time"
)

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// FormatSeconds renders a duration in seconds as "1h 05m", "12m 30s" or "45s".
func FormatSeconds(sec int) string {
	if sec <= 0 {
		return "0s"
	}
	h, m, s := sec/3600, sec%3600/60, sec%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// ClockRange renders [start, end] as "Mon 02 Jan 09:00–10:30". A nil end is
// shown as running.
func ClockRange(start time.Time, end *time.Time) string {
	from := start.UTC().Format("Mon 02 Jan 15:04")
	if end == nil {
		return from + "–" + StyleGreen.Render("running")
	}
	to := end.UTC()
	if to.YearDay() != start.UTC().YearDay() || to.Year() != start.UTC().Year() {
		return from + "–" + to.Format("Mon 02 Jan 15:04")
	}
	return from + "–" + to.Format("15:04")
}
