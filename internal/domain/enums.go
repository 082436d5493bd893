package domain

type LogType string

const (
	LogTracked LogType = "TRACKED"
	LogManual  LogType = "MANUAL"
	LogIdle    LogType = "IDLE"
	LogResumed LogType = "RESUMED"
)

// ValidLogTypes is the canonical set of accepted log type strings.
var ValidLogTypes = map[LogType]bool{
	LogTracked: true, LogManual: true, LogIdle: true, LogResumed: true,
}

type LogSource string

const (
	SourceWebTimer LogSource = "WEB_TIMER"
	SourceDesktop  LogSource = "DESKTOP"
)

// ValidLogSources is the canonical set of accepted log source strings.
var ValidLogSources = map[LogSource]bool{
	SourceWebTimer: true, SourceDesktop: true,
}

type ActivityType string

const (
	ActivityApp ActivityType = "APP"
	ActivityURL ActivityType = "URL"
)

type Permission string

const (
	PermChangeSelectedEmployee Permission = "CHANGE_SELECTED_EMPLOYEE"
	PermAllowManualTime        Permission = "ALLOW_MANUAL_TIME"
	PermAllowDeleteTime        Permission = "ALLOW_DELETE_TIME"
)
