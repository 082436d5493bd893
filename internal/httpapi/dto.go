package httpapi

import (
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"github.com/alexanderramin/timeledger/internal/service"
)

type activityRequest struct {
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Duration   int       `json:"duration"`
	RecordedAt time.Time `json:"recordedAt"`
}

type minuteRequest struct {
	Datetime time.Time `json:"datetime"`
	Keyboard int       `json:"keyboard"`
	Mouse    int       `json:"mouse"`
}

type slotRequest struct {
	EmployeeID     string            `json:"employeeId"`
	OrganizationID string            `json:"organizationId"`
	ProjectID      string            `json:"projectId"`
	StartedAt      time.Time         `json:"startedAt"`
	Duration       int               `json:"duration"`
	Keyboard       int               `json:"keyboard"`
	Mouse          int               `json:"mouse"`
	Overall        int               `json:"overall"`
	TimeLogIDs     []string          `json:"timeLogIds"`
	Activities     []activityRequest `json:"activities"`
	Minutes        []minuteRequest   `json:"minutes"`
}

func (r slotRequest) input() service.SlotInput {
	in := service.SlotInput{
		EmployeeID:     r.EmployeeID,
		OrganizationID: r.OrganizationID,
		ProjectID:      r.ProjectID,
		StartedAt:      r.StartedAt,
		Duration:       r.Duration,
		Keyboard:       r.Keyboard,
		Mouse:          r.Mouse,
		Overall:        r.Overall,
		TimeLogIDs:     r.TimeLogIDs,
	}
	for _, a := range r.Activities {
		in.Activities = append(in.Activities, service.ActivityInput{
			Title: a.Title, Type: domain.ActivityType(a.Type), Duration: a.Duration, RecordedAt: a.RecordedAt,
		})
	}
	for _, m := range r.Minutes {
		in.Minutes = append(in.Minutes, service.MinuteInput{Datetime: m.Datetime, Keyboard: m.Keyboard, Mouse: m.Mouse})
	}
	return in
}

type bulkSlotRequest struct {
	Slots []slotRequest `json:"slots"`
}

type manualTimeRequest struct {
	EmployeeID     string    `json:"employeeId"`
	OrganizationID string    `json:"organizationId"`
	StartedAt      time.Time `json:"startedAt"`
	StoppedAt      time.Time `json:"stoppedAt"`
	Source         string    `json:"source"`
	Description    string    `json:"description"`
}

func (r manualTimeRequest) input() service.ManualTimeInput {
	return service.ManualTimeInput{
		EmployeeID:     r.EmployeeID,
		OrganizationID: r.OrganizationID,
		StartedAt:      r.StartedAt,
		StoppedAt:      r.StoppedAt,
		Source:         domain.LogSource(r.Source),
		Description:    r.Description,
	}
}

type deleteRequest struct {
	LogIDs         []string `json:"logIds"`
	EmployeeID     string   `json:"employeeId"`
	OrganizationID string   `json:"organizationId"`
	ForceDelete    bool     `json:"forceDelete"`
}

type mergeRequest struct {
	EmployeeID     string    `json:"employeeId"`
	OrganizationID string    `json:"organizationId"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

type timerRequest struct {
	EmployeeID     string     `json:"employeeId"`
	OrganizationID string     `json:"organizationId"`
	Source         string     `json:"source"`
	LogType        string     `json:"logType"`
	Description    string     `json:"description"`
	StoppedAt      *time.Time `json:"stoppedAt"`
}

func (r timerRequest) input() service.TimerInput {
	return service.TimerInput{
		EmployeeID:     r.EmployeeID,
		OrganizationID: r.OrganizationID,
		Source:         domain.LogSource(r.Source),
		LogType:        domain.LogType(r.LogType),
		Description:    r.Description,
		StoppedAt:      r.StoppedAt,
	}
}

type timeLogResponse struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	TimesheetID string     `json:"timesheetId,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	StoppedAt   *time.Time `json:"stoppedAt"`
	LogType     string     `json:"logType"`
	Source      string     `json:"source"`
	IsRunning   bool       `json:"isRunning"`
	Description string     `json:"description,omitempty"`
	EditedAt    *time.Time `json:"editedAt,omitempty"`
}

func toTimeLogResponse(l *domain.TimeLog) timeLogResponse {
	return timeLogResponse{
		ID:          l.ID,
		EmployeeID:  l.EmployeeID,
		TimesheetID: l.TimesheetID,
		StartedAt:   l.StartedAt,
		StoppedAt:   l.StoppedAt,
		LogType:     string(l.LogType),
		Source:      string(l.Source),
		IsRunning:   l.IsRunning,
		Description: l.Description,
		EditedAt:    l.EditedAt,
	}
}

func toTimeLogResponses(logs []*domain.TimeLog) []timeLogResponse {
	out := make([]timeLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toTimeLogResponse(l))
	}
	return out
}

type timeSlotResponse struct {
	ID                 string    `json:"id"`
	EmployeeID         string    `json:"employeeId"`
	StartedAt          time.Time `json:"startedAt"`
	Duration           int       `json:"duration"`
	Keyboard           int       `json:"keyboard"`
	Mouse              int       `json:"mouse"`
	Overall            int       `json:"overall"`
	KeyboardPercentage float64   `json:"keyboardPercentage"`
	MousePercentage    float64   `json:"mousePercentage"`
	OverallPercentage  float64   `json:"overallPercentage"`
	TimeLogIDs         []string  `json:"timeLogIds"`
	Activities         int       `json:"activities"`
	Screenshots        int       `json:"screenshots"`
}

func toTimeSlotResponse(s *domain.TimeSlot) timeSlotResponse {
	return timeSlotResponse{
		ID:                 s.ID,
		EmployeeID:         s.EmployeeID,
		StartedAt:          s.StartedAt,
		Duration:           s.Duration,
		Keyboard:           s.Keyboard,
		Mouse:              s.Mouse,
		Overall:            s.Overall,
		KeyboardPercentage: s.KeyboardPercentage,
		MousePercentage:    s.MousePercentage,
		OverallPercentage:  s.OverallPercentage,
		TimeLogIDs:         s.LogIDs(),
		Activities:         len(s.Activities),
		Screenshots:        len(s.Screenshots),
	}
}

func toTimeSlotResponses(slots []*domain.TimeSlot) []timeSlotResponse {
	out := make([]timeSlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toTimeSlotResponse(s))
	}
	return out
}

type timesheetResponse struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"startedAt"`
	StoppedAt time.Time `json:"stoppedAt"`
	Duration  int       `json:"duration"`
	Keyboard  int       `json:"keyboard"`
	Mouse     int       `json:"mouse"`
	Overall   int       `json:"overall"`
}

func toTimesheetResponse(ts *domain.Timesheet) timesheetResponse {
	return timesheetResponse{
		ID:        ts.ID,
		StartedAt: ts.StartedAt,
		StoppedAt: ts.StoppedAt,
		Duration:  ts.Duration,
		Keyboard:  ts.Keyboard,
		Mouse:     ts.Mouse,
		Overall:   ts.Overall,
	}
}
