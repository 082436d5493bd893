package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
)

// FormatTimeLogs renders logs as a boxed table. now sizes open logs.
func FormatTimeLogs(logs []*domain.TimeLog, now time.Time) string {
	if len(logs) == 0 {
		return Dim("No time logs in range.") + "\n"
	}
	headers := []string{"ID", "WHEN", "DURATION", "TYPE", "SOURCE", "NOTE"}
	rows := make([][]string, 0, len(logs))
	total := 0
	for _, l := range logs {
		d := l.Duration(now)
		total += d
		end := l.StoppedAt
		if l.IsOpen() {
			end = nil
		}
		note := l.Description
		if len(note) > 40 {
			note = note[:37] + "..."
		}
		rows = append(rows, []string{
			TruncID(l.ID),
			ClockRange(l.StartedAt, end),
			FormatSeconds(d),
			string(l.LogType),
			strings.ToLower(string(l.Source)),
			Dim(note),
		})
	}
	body := RenderTable(headers, rows) + "\n" + Bold("Total ") + FormatSeconds(total)
	return RenderBox(fmt.Sprintf("Time logs (%d)", len(logs)), body) + "\n"
}

// FormatTimeSlots renders slots with their activity percentages.
func FormatTimeSlots(slots []*domain.TimeSlot) string {
	if len(slots) == 0 {
		return Dim("No time slots in range.") + "\n"
	}
	headers := []string{"BUCKET", "DURATION", "KEYBOARD", "MOUSE", "OVERALL", "LOGS", "ACTIVITIES"}
	rows := make([][]string, 0, len(slots))
	for _, s := range slots {
		rows = append(rows, []string{
			s.StartedAt.UTC().Format("Mon 15:04"),
			FormatSeconds(s.Duration),
			Percent(s.KeyboardPercentage),
			Percent(s.MousePercentage),
			Percent(s.OverallPercentage),
			fmt.Sprintf("%d", len(s.TimeLogs)),
			fmt.Sprintf("%d", len(s.Activities)),
		})
	}
	return RenderBox(fmt.Sprintf("Time slots (%d)", len(slots)), RenderTable(headers, rows)) + "\n"
}

// FormatTimesheet renders one week's totals.
func FormatTimesheet(ts *domain.Timesheet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s – %s\n", Bold("Week"),
		ts.StartedAt.UTC().Format("Mon 02 Jan 2006"), ts.StoppedAt.UTC().Format("Mon 02 Jan 2006"))
	fmt.Fprintf(&b, "%s  %s\n", Bold("Tracked"), FormatSeconds(ts.Duration))
	fmt.Fprintf(&b, "%s  keyboard %s · mouse %s · overall %s\n", Bold("Activity"),
		FormatSeconds(ts.Keyboard), FormatSeconds(ts.Mouse), FormatSeconds(ts.Overall))
	return RenderBox("Timesheet "+TruncID(ts.ID), b.String()) + "\n"
}

// FormatEmployees lists employees with their tracking state.
func FormatEmployees(employees []*domain.Employee) string {
	if len(employees) == 0 {
		return Dim("No employees.") + "\n"
	}
	headers := []string{"ID", "NAME", "TRACKING", "WORKED"}
	rows := make([][]string, 0, len(employees))
	for _, e := range employees {
		state := StyleDim.Render("○ idle")
		switch {
		case !e.IsTrackingEnabled:
			state = StyleRed.Render("✖ disabled")
		case e.IsTrackingTime:
			state = StyleGreen.Render("● tracking")
		}
		rows = append(rows, []string{
			TruncID(e.ID),
			e.Name,
			state,
			fmt.Sprintf("%.2fh", e.TotalWorkHours()),
		})
	}
	return RenderBox("Employees", RenderTable(headers, rows)) + "\n"
}
