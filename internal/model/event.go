package model

import "time"

// ScheduleEventKind names a committed schedule mutation.
type ScheduleEventKind string

const (
	EventWeekDeleted        ScheduleEventKind = "week_deleted"
	EventSessionRescheduled ScheduleEventKind = "session_rescheduled"
)

// ScheduleEvent is published after a schedule mutation commits.
type ScheduleEvent struct {
	ID         string            `json:"id"`
	Kind       ScheduleEventKind `json:"kind"`
	Partition  string            `json:"partition"`
	CohortName string            `json:"cohort_name"`
	OccurredAt time.Time         `json:"occurred_at"`

	WeekNumber  int `json:"week_number,omitempty"`
	Deleted     int `json:"deleted,omitempty"`
	Updated     int `json:"updated,omitempty"`
	DaysShifted int `json:"days_shifted,omitempty"`

	SessionID int    `json:"session_id,omitempty"`
	Action    string `json:"action,omitempty"`
	NewDate   string `json:"new_date,omitempty"`
	NewTime   string `json:"new_time,omitempty"`
}
