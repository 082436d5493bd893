// Package gormstore implements the repository interfaces on GORM, so the
// engine can run on PostgreSQL or on SQLite through the pure-Go driver.
package gormstore

import (
	"time"

	"github.com/alexanderramin/timeledger/internal/domain"
	"gorm.io/gorm"
)

type organizationModel struct {
	ID                string `gorm:"primaryKey;size:36"`
	TenantID          string `gorm:"size:36;not null;index"`
	Name              string `gorm:"size:255;not null"`
	FutureDateAllowed bool   `gorm:"not null"`
	CreatedAt         time.Time
}

func (organizationModel) TableName() string { return "organizations" }

type employeeModel struct {
	ID                string `gorm:"primaryKey;size:36"`
	TenantID          string `gorm:"size:36;not null;index:idx_employees_org,priority:1"`
	OrganizationID    string `gorm:"size:36;not null;index:idx_employees_org,priority:2"`
	Name              string `gorm:"size:255;not null"`
	IsTrackingEnabled bool   `gorm:"not null"`
	IsTrackingTime    bool   `gorm:"not null"`
	TotalWorkSeconds  int64  `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (employeeModel) TableName() string { return "employees" }

type timesheetModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	TenantID       string    `gorm:"size:36;not null"`
	OrganizationID string    `gorm:"size:36;not null"`
	EmployeeID     string    `gorm:"size:36;not null;index:idx_timesheets_employee_week,priority:1"`
	StartedAt      time.Time `gorm:"not null;index:idx_timesheets_employee_week,priority:2"`
	StoppedAt      time.Time `gorm:"not null"`
	Duration       int       `gorm:"not null"`
	Keyboard       int       `gorm:"not null"`
	Mouse          int       `gorm:"not null"`
	Overall        int       `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (timesheetModel) TableName() string { return "timesheets" }

type timeLogModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	TenantID       string    `gorm:"size:36;not null"`
	OrganizationID string    `gorm:"size:36;not null"`
	EmployeeID     string    `gorm:"size:36;not null;index:idx_time_logs_employee_started,priority:1"`
	TimesheetID    *string   `gorm:"size:36"`
	StartedAt      time.Time `gorm:"not null;index:idx_time_logs_employee_started,priority:2"`
	StoppedAt      *time.Time
	LogType        string `gorm:"size:16;not null"`
	Source         string `gorm:"size:16;not null"`
	IsRunning      bool   `gorm:"not null"`
	Description    string `gorm:"not null"`
	EditedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (timeLogModel) TableName() string { return "time_logs" }

type timeSlotModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	TenantID       string    `gorm:"size:36;not null"`
	OrganizationID string    `gorm:"size:36;not null"`
	EmployeeID     string    `gorm:"size:36;not null;index:idx_time_slots_employee_started,priority:1"`
	StartedAt      time.Time `gorm:"not null;index:idx_time_slots_employee_started,priority:2"`
	Duration       int       `gorm:"not null"`
	Keyboard       int       `gorm:"not null"`
	Mouse          int       `gorm:"not null"`
	Overall        int       `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (timeSlotModel) TableName() string { return "time_slots" }

type timeSlotLogModel struct {
	TimeSlotID string `gorm:"primaryKey;size:36"`
	TimeLogID  string `gorm:"primaryKey;size:36;index"`
}

func (timeSlotLogModel) TableName() string { return "time_slot_time_logs" }

type activityModel struct {
	ID             string  `gorm:"primaryKey;size:36"`
	TenantID       string  `gorm:"size:36;not null"`
	OrganizationID string  `gorm:"size:36;not null"`
	EmployeeID     string  `gorm:"size:36;not null"`
	ProjectID      string  `gorm:"size:36;not null"`
	TimeSlotID     *string `gorm:"size:36;index"`
	Title          string  `gorm:"not null"`
	Type           string  `gorm:"size:8;not null"`
	Duration       int     `gorm:"not null"`
	RecordedAt     time.Time
	CreatedAt      time.Time
}

func (activityModel) TableName() string { return "activities" }

type screenshotModel struct {
	ID             string  `gorm:"primaryKey;size:36"`
	TenantID       string  `gorm:"size:36;not null"`
	OrganizationID string  `gorm:"size:36;not null"`
	EmployeeID     string  `gorm:"size:36;not null"`
	TimeSlotID     *string `gorm:"size:36;index"`
	File           string  `gorm:"not null"`
	RecordedAt     time.Time
	CreatedAt      time.Time
}

func (screenshotModel) TableName() string { return "screenshots" }

type minuteModel struct {
	ID         string    `gorm:"primaryKey;size:36"`
	TimeSlotID string    `gorm:"size:36;not null;index"`
	Datetime   time.Time `gorm:"not null"`
	Keyboard   int       `gorm:"not null"`
	Mouse      int       `gorm:"not null"`
	CreatedAt  time.Time
}

func (minuteModel) TableName() string { return "time_slot_minutes" }

// Models lists every table the adapter owns, for AutoMigrate.
func Models() []any {
	return []any{
		&organizationModel{}, &employeeModel{}, &timesheetModel{},
		&timeLogModel{}, &timeSlotModel{}, &timeSlotLogModel{},
		&activityModel{}, &screenshotModel{}, &minuteModel{},
	}
}

// The conversions below are the adapter's explicit load/save transforms.

func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func deletedAtPtr(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time.UTC()
	return &t
}

func toTimeLogModel(l *domain.TimeLog) *timeLogModel {
	m := &timeLogModel{
		ID: l.ID, TenantID: l.TenantID, OrganizationID: l.OrganizationID, EmployeeID: l.EmployeeID,
		TimesheetID: strPtr(l.TimesheetID),
		StartedAt:   utc(l.StartedAt), StoppedAt: utcPtr(l.StoppedAt),
		LogType: string(l.LogType), Source: string(l.Source), IsRunning: l.IsRunning,
		Description: l.Description, EditedAt: utcPtr(l.EditedAt),
		CreatedAt: utc(l.CreatedAt), UpdatedAt: utc(l.UpdatedAt),
	}
	if l.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *l.DeletedAt, Valid: true}
	}
	return m
}

func fromTimeLogModel(m *timeLogModel) *domain.TimeLog {
	return &domain.TimeLog{
		ID: m.ID, TenantID: m.TenantID, OrganizationID: m.OrganizationID, EmployeeID: m.EmployeeID,
		TimesheetID: deref(m.TimesheetID),
		StartedAt:   utc(m.StartedAt), StoppedAt: utcPtr(m.StoppedAt),
		LogType: domain.LogType(m.LogType), Source: domain.LogSource(m.Source), IsRunning: m.IsRunning,
		Description: m.Description, EditedAt: utcPtr(m.EditedAt),
		CreatedAt: utc(m.CreatedAt), UpdatedAt: utc(m.UpdatedAt), DeletedAt: deletedAtPtr(m.DeletedAt),
	}
}

func toTimeSlotModel(s *domain.TimeSlot) *timeSlotModel {
	return &timeSlotModel{
		ID: s.ID, TenantID: s.TenantID, OrganizationID: s.OrganizationID, EmployeeID: s.EmployeeID,
		StartedAt: utc(s.StartedAt),
		Duration:  s.Duration, Keyboard: s.Keyboard, Mouse: s.Mouse, Overall: s.Overall,
		CreatedAt: utc(s.CreatedAt), UpdatedAt: utc(s.UpdatedAt),
	}
}

func fromTimeSlotModel(m *timeSlotModel) *domain.TimeSlot {
	s := &domain.TimeSlot{
		ID: m.ID, TenantID: m.TenantID, OrganizationID: m.OrganizationID, EmployeeID: m.EmployeeID,
		StartedAt: utc(m.StartedAt),
		Duration:  m.Duration, Keyboard: m.Keyboard, Mouse: m.Mouse, Overall: m.Overall,
		CreatedAt: utc(m.CreatedAt), UpdatedAt: utc(m.UpdatedAt), DeletedAt: deletedAtPtr(m.DeletedAt),
	}
	s.DerivePercentages()
	return s
}

func toTimesheetModel(ts *domain.Timesheet) *timesheetModel {
	return &timesheetModel{
		ID: ts.ID, TenantID: ts.TenantID, OrganizationID: ts.OrganizationID, EmployeeID: ts.EmployeeID,
		StartedAt: utc(ts.StartedAt), StoppedAt: utc(ts.StoppedAt),
		Duration: ts.Duration, Keyboard: ts.Keyboard, Mouse: ts.Mouse, Overall: ts.Overall,
		CreatedAt: utc(ts.CreatedAt), UpdatedAt: utc(ts.UpdatedAt),
	}
}

func fromTimesheetModel(m *timesheetModel) *domain.Timesheet {
	return &domain.Timesheet{
		ID: m.ID, TenantID: m.TenantID, OrganizationID: m.OrganizationID, EmployeeID: m.EmployeeID,
		StartedAt: utc(m.StartedAt), StoppedAt: utc(m.StoppedAt),
		Duration: m.Duration, Keyboard: m.Keyboard, Mouse: m.Mouse, Overall: m.Overall,
		CreatedAt: utc(m.CreatedAt), UpdatedAt: utc(m.UpdatedAt),
	}
}

func toEmployeeModel(e *domain.Employee) *employeeModel {
	return &employeeModel{
		ID: e.ID, TenantID: e.TenantID, OrganizationID: e.OrganizationID, Name: e.Name,
		IsTrackingEnabled: e.IsTrackingEnabled, IsTrackingTime: e.IsTrackingTime,
		TotalWorkSeconds: e.TotalWorkSeconds,
		CreatedAt:        utc(e.CreatedAt), UpdatedAt: utc(e.UpdatedAt),
	}
}

func fromEmployeeModel(m *employeeModel) *domain.Employee {
	return &domain.Employee{
		ID: m.ID, TenantID: m.TenantID, OrganizationID: m.OrganizationID, Name: m.Name,
		IsTrackingEnabled: m.IsTrackingEnabled, IsTrackingTime: m.IsTrackingTime,
		TotalWorkSeconds: m.TotalWorkSeconds,
		CreatedAt:        utc(m.CreatedAt), UpdatedAt: utc(m.UpdatedAt),
	}
}

func fromActivityModel(m *activityModel) *domain.Activity {
	return &domain.Activity{
		ID: m.ID, TenantID: m.TenantID, OrganizationID: m.OrganizationID, EmployeeID: m.EmployeeID,
		ProjectID: m.ProjectID, TimeSlotID: deref(m.TimeSlotID), Title: m.Title,
		Type: domain.ActivityType(m.Type), Duration: m.Duration,
		RecordedAt: utc(m.RecordedAt), CreatedAt: utc(m.CreatedAt),
	}
}

func fromScreenshotModel(m *screenshotModel) *domain.Screenshot {
	return &domain.Screenshot{
		ID: m.ID, TenantID: m.TenantID, OrganizationID: m.OrganizationID, EmployeeID: m.EmployeeID,
		TimeSlotID: deref(m.TimeSlotID), File: m.File,
		RecordedAt: utc(m.RecordedAt), CreatedAt: utc(m.CreatedAt),
	}
}

func fromMinuteModel(m *minuteModel) *domain.TimeSlotMinute {
	return &domain.TimeSlotMinute{
		ID: m.ID, TimeSlotID: m.TimeSlotID, Datetime: utc(m.Datetime),
		Keyboard: m.Keyboard, Mouse: m.Mouse, CreatedAt: utc(m.CreatedAt),
	}
}
