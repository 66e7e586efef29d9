package models

import "strings"

// AttendanceStatus is the closed set of normalized attendance values.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// ParseAttendanceStatus normalizes a raw status value case-insensitively.
// The second return is false for unknown or empty input; such records are
// logged and skipped by the aggregator, never bucketed.
func ParseAttendanceStatus(raw string) (AttendanceStatus, bool) {
	switch AttendanceStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case AttendancePresent:
		return AttendancePresent, true
	case AttendanceAbsent:
		return AttendanceAbsent, true
	case AttendanceLate:
		return AttendanceLate, true
	case AttendanceExcused:
		return AttendanceExcused, true
	default:
		return "", false
	}
}

// AttendanceRecord is one attendance event for a student on a lesson. Status
// is kept raw as stored; normalization happens on aggregation.
type AttendanceRecord struct {
	ID        string `db:"id" json:"id"`
	StudentID string `db:"student_id" json:"student_id"`
	LessonID  string `db:"lesson_id" json:"lesson_id"`
	Status    string `db:"status" json:"status"`
}

// AttendanceFilter scopes attendance queries.
type AttendanceFilter struct {
	StudentID string
	LessonIDs []string
}

// AttendanceSummary is the reduced attendance view for one student and
// lesson set. Percentage is an integer in [0,100].
type AttendanceSummary struct {
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Late       int `json:"late"`
	Excused    int `json:"excused"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}
