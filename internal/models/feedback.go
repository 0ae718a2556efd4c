package models

import (
	"time"

	"github.com/google/uuid"
)

type Feedback struct {
	ID        uuid.UUID `json:"feedback_id" db:"id"`
	PlanID    string    `json:"plan_id" db:"plan_id"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`
	Rating    int       `json:"rating" db:"rating"`
	Comments  string    `json:"comments" db:"comments"`
}
