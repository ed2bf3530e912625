package model

import (
	"strings"
	"time"
)

// Date and time-of-day wire formats.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Session is one scheduled class occurrence inside a cohort partition.
type Session struct {
	ID               int       `json:"id"`
	WeekNumber       int       `json:"week_number"`
	SessionNumber    int       `json:"session_number"`
	Date             time.Time `json:"date"`
	Day              string    `json:"day"`
	Time             *string   `json:"time,omitempty"`
	MentorID         int       `json:"mentor_id"`
	SwappedMentorID  *int      `json:"swapped_mentor_id,omitempty"`
	SessionRecording *string   `json:"session_recording,omitempty"`
	MeetingLink      *string   `json:"meeting_link,omitempty"`
	Materials        Materials `json:"materials"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Recorded reports whether the class actually took place.
func (s *Session) Recorded() bool {
	return s.SessionRecording != nil && strings.TrimSpace(*s.SessionRecording) != ""
}

// Swapped reports whether a substitute mentor covered the session.
func (s *Session) Swapped() bool {
	return s.SwappedMentorID != nil
}

// SessionUpdate carries the fields of a single partial update. Nil fields are left untouched.
type SessionUpdate struct {
	WeekNumber       *int
	Date             *time.Time
	Day              *string
	Time             *string
	ClearMeetingLink bool
}

// Empty reports whether the update would not change any column.
func (u SessionUpdate) Empty() bool {
	return u.WeekNumber == nil && u.Date == nil && u.Day == nil && u.Time == nil && !u.ClearMeetingLink
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// ParseClock validates and normalizes an HH:MM time of day.
func ParseClock(s string) (string, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.Format(TimeLayout), nil
}

// WeekdayName returns the English weekday of a date, e.g. "Monday".
func WeekdayName(t time.Time) string {
	return t.Weekday().String()
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
