package model

import "time"

// Cohort is a registered cohort row. Its schedule lives in a dedicated partition table.
type Cohort struct {
	ID        int       `json:"id"`
	Type      string    `json:"type"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}
