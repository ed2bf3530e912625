package model

// RescheduleAction is the direction of a reschedule.
type RescheduleAction string

const (
	ActionPrepone  RescheduleAction = "prepone"
	ActionPostpone RescheduleAction = "postpone"
)

// Valid reports whether the action is one of the supported directions.
func (a RescheduleAction) Valid() bool {
	return a == ActionPrepone || a == ActionPostpone
}

// PastTense renders the action for notification copy, e.g. "preponed".
func (a RescheduleAction) PastTense() string {
	return string(a) + "d"
}

// RescheduleRequest is the payload for moving one session.
type RescheduleRequest struct {
	NewDate    string           `json:"new_date" binding:"required,datetime=2006-01-02"`
	NewTime    *string          `json:"new_time" binding:"omitempty,hhmm"`
	ActionType RescheduleAction `json:"action_type" binding:"required,oneof=prepone postpone"`
	MentorName string           `json:"mentor_name" binding:"required,min=1,max=100"`
}

// CohortURI addresses a cohort by its path parameters.
type CohortURI struct {
	Type   string `uri:"type" json:"type" binding:"required,cohort_type"`
	Number string `uri:"number" json:"number" binding:"required,cohort_number"`
}

// WeekURI addresses one week of a cohort.
type WeekURI struct {
	CohortURI
	Week int `uri:"week" json:"week" binding:"required,min=1"`
}

// SessionURI addresses one session of a cohort.
type SessionURI struct {
	CohortURI
	ID int `uri:"id" json:"id" binding:"required,min=1"`
}

// MentorURI addresses one mentor.
type MentorURI struct {
	ID int `uri:"id" json:"id" binding:"required,min=1"`
}
