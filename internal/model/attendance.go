package model

import "time"

// AttendanceLedgerEntry is the derived attendance summary of one mentor.
// It is always recomputed from scratch and replaced as a whole.
type AttendanceLedgerEntry struct {
	MentorID          int       `json:"mentor_id"`
	TotalClasses      int       `json:"total_classes"`
	Present           int       `json:"present"`
	Absent            int       `json:"absent"`
	SpecialAttendance int       `json:"special_attendance"`
	AttendancePercent float64   `json:"attendance_percent"`
	UpdatedAt         time.Time `json:"updated_at"`
}
