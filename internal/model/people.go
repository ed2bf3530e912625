package model

// Mentor teaches sessions. Read-only for schedule operations.
type Mentor struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// RecipientKind distinguishes the audiences of a schedule notification.
type RecipientKind string

const (
	RecipientCoordinator RecipientKind = "coordinator"
	RecipientStudent     RecipientKind = "student"
)

// Recipient is anyone who receives schedule notifications.
type Recipient struct {
	ID    int           `json:"id"`
	Kind  RecipientKind `json:"kind"`
	Name  string        `json:"name"`
	Email string        `json:"email,omitempty"`
	Phone string        `json:"phone,omitempty"`
}
