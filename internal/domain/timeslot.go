package domain

import (
	"math"
	"time"
)

// TimeSlot is the canonical activity record for one 10-minute bucket.
type TimeSlot struct {
	ID             string
	TenantID       string
	OrganizationID string
	EmployeeID     string
	StartedAt      time.Time
	Duration       int
	Keyboard       int
	Mouse          int
	Overall        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time

	TimeLogs    []*TimeLog
	Activities  []*Activity
	Screenshots []*Screenshot
	Minutes     []*TimeSlotMinute

	// Derived on load, never stored.
	KeyboardPercentage float64
	MousePercentage    float64
	OverallPercentage  float64
}

func (s *TimeSlot) Scope() Scope {
	return Scope{TenantID: s.TenantID, OrganizationID: s.OrganizationID, EmployeeID: s.EmployeeID}
}

// DerivePercentages fills the percentage fields from the raw counters,
// relative to the tracked duration of the slot.
func (s *TimeSlot) DerivePercentages() {
	if s.Duration <= 0 {
		s.KeyboardPercentage, s.MousePercentage, s.OverallPercentage = 0, 0, 0
		return
	}
	pct := func(v int) float64 {
		p := float64(v) * 100 / float64(s.Duration)
		return math.Round(math.Min(p, 100)*100) / 100
	}
	s.KeyboardPercentage = pct(s.Keyboard)
	s.MousePercentage = pct(s.Mouse)
	s.OverallPercentage = pct(s.Overall)
}

func (s *TimeSlot) HasLog(id string) bool {
	for _, l := range s.TimeLogs {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (s *TimeSlot) LogIDs() []string {
	ids := make([]string, 0, len(s.TimeLogs))
	for _, l := range s.TimeLogs {
		ids = append(ids, l.ID)
	}
	return ids
}

// Activity is a recorded application or URL usage inside a slot.
type Activity struct {
	ID             string
	TenantID       string
	OrganizationID string
	EmployeeID     string
	ProjectID      string
	TimeSlotID     string
	Title          string
	Type           ActivityType
	Duration       int
	RecordedAt     time.Time
	CreatedAt      time.Time
}

// Screenshot is the metadata of a capture attached to a slot.
type Screenshot struct {
	ID             string
	TenantID       string
	OrganizationID string
	EmployeeID     string
	TimeSlotID     string
	File           string
	RecordedAt     time.Time
	CreatedAt      time.Time
}

// TimeSlotMinute is the per-minute keyboard/mouse breakdown of a slot.
type TimeSlotMinute struct {
	ID         string
	TimeSlotID string
	Datetime   time.Time
	Keyboard   int
	Mouse      int
	CreatedAt  time.Time
}
