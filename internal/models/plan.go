package models

import (
	"github.com/google/uuid"
)

type PlanStatus string

const (
	PlanStatusSuccess PlanStatus = "success"
	PlanStatusError   PlanStatus = "error"
)

type YearAmount struct {
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}

// IntermediateCalculations is the per-year projection split into parallel series.
type IntermediateCalculations struct {
	Contributions []YearAmount `json:"contributions"`
	Growth        []YearAmount `json:"growth"`
	Cumulative    []YearAmount `json:"cumulative"`
}

type SimilarProfile struct {
	ProfileID  string  `json:"profile_id"`
	Similarity int     `json:"similarity"`
	Age        int     `json:"age"`
	Income     float64 `json:"income"`
	Savings    float64 `json:"savings"`
	Strategy   string  `json:"strategy"`
}

// PlanResult is created once per distinct canonical input and never mutated afterwards.
type PlanResult struct {
	PlanID                   uuid.UUID                `json:"plan_id"`
	Narrative                string                   `json:"plan"`
	ProjectedSavings         float64                  `json:"projected_savings"`
	YearsLeft                int                      `json:"years_left"`
	Gap                      float64                  `json:"gap"`
	RequiredSavingsRate      float64                  `json:"required_savings_rate"`
	IntermediateCalculations IntermediateCalculations `json:"intermediate_calculations"`
	SimilarProfiles          []SimilarProfile         `json:"similar_profiles"`
	Status                   PlanStatus               `json:"status"`
}
