package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is an append-only record of the raw input submitted with a plan request.
type UserProfile struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Timestamp time.Time      `json:"timestamp" db:"created_at"`
	Data      map[string]any `json:"data" db:"data"`
}
