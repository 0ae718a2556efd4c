package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"retire-rag/internal/models"
)

// RetirementInput is the raw plan request as submitted by the planner form.
type RetirementInput struct {
	Age                   int      `json:"age"`
	CurrentSavings        float64  `json:"currentSavings"`
	Income                float64  `json:"income"`
	RetirementAge         int      `json:"retirementAge"`
	RetirementSavingsGoal float64  `json:"retirementSavingsGoal"`
	Gender                string   `json:"gender"`
	CurrentJob            string   `json:"currentJob"`
	Spending              float64  `json:"spending"`
	HasMortgage           string   `json:"hasMortgage"`
	MortgageAmount        float64  `json:"mortgageAmount"`
	MortgageTerm          int      `json:"mortgageTerm"`
	DownPayment           float64  `json:"downPayment"`
	DownPaymentPercent    *float64 `json:"downPaymentPercent"`
	Assets                float64  `json:"assets"`
	HasInsurance          string   `json:"hasInsurance"`
	InsurancePayment      float64  `json:"insurancePayment"`
	HasInvestment         string   `json:"hasInvestment"`
	InvestmentAmount      float64  `json:"investmentAmount"`
}

// Validate rejects structurally impossible values. Out-of-range ages are not
// rejected here; they are clamped during normalization.
func (in *RetirementInput) Validate() error {
	var errs []error
	nonNegative := map[string]float64{
		"currentSavings":        in.CurrentSavings,
		"income":                in.Income,
		"retirementSavingsGoal": in.RetirementSavingsGoal,
		"spending":              in.Spending,
		"mortgageAmount":        in.MortgageAmount,
		"downPayment":           in.DownPayment,
		"assets":                in.Assets,
		"insurancePayment":      in.InsurancePayment,
		"investmentAmount":      in.InvestmentAmount,
	}
	for _, field := range []string{
		"currentSavings", "income", "retirementSavingsGoal", "spending", "mortgageAmount",
		"downPayment", "assets", "insurancePayment", "investmentAmount",
	} {
		if nonNegative[field] < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0", field))
		}
	}
	if in.MortgageTerm < 0 || in.MortgageTerm > 50 {
		errs = append(errs, errors.New("mortgageTerm must be between 0 and 50"))
	}
	if p := in.DownPaymentPercent; p != nil && (*p < 0 || *p > 100) {
		errs = append(errs, errors.New("downPaymentPercent must be between 0 and 100"))
	}
	for field, v := range map[string]string{
		"hasMortgage":   in.HasMortgage,
		"hasInsurance":  in.HasInsurance,
		"hasInvestment": in.HasInvestment,
	} {
		switch strings.ToLower(v) {
		case "", "yes", "no":
		default:
			errs = append(errs, fmt.Errorf("%s must be yes or no", field))
		}
	}
	return errors.Join(errs...)
}

// ApplyDefaults fills the yes/no flags the form may omit.
func (in *RetirementInput) ApplyDefaults() {
	for _, flag := range []*string{&in.HasMortgage, &in.HasInsurance, &in.HasInvestment} {
		if *flag == "" {
			*flag = "no"
		}
		*flag = strings.ToLower(*flag)
	}
}

// ToMap returns the input as a generic mapping, the shape persisted in profile records.
func (in *RetirementInput) ToMap() map[string]any {
	raw, err := json.Marshal(in)
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

type RetirementPlan struct {
	PlanID                   string                          `json:"plan_id"`
	Plan                     string                          `json:"plan"`
	ProjectedSavings         float64                         `json:"projected_savings"`
	YearsLeft                int                             `json:"years_left"`
	Gap                      float64                         `json:"gap"`
	RequiredSavingsRate      float64                         `json:"required_savings_rate"`
	IntermediateCalculations models.IntermediateCalculations `json:"intermediate_calculations"`
	SimilarProfiles          []models.SimilarProfile         `json:"similar_profiles"`
}

type PlanResponse struct {
	RetirementPlan RetirementPlan `json:"retirement_plan"`
	ProfileID      string         `json:"profile_id"`
	Status         string         `json:"status"`
	Error          string         `json:"error,omitempty"`
}

func NewPlanResponse(plan *models.PlanResult, profileID string) *PlanResponse {
	similar := plan.SimilarProfiles
	if similar == nil {
		similar = []models.SimilarProfile{}
	}
	return &PlanResponse{
		RetirementPlan: RetirementPlan{
			PlanID:                   plan.PlanID.String(),
			Plan:                     plan.Narrative,
			ProjectedSavings:         plan.ProjectedSavings,
			YearsLeft:                plan.YearsLeft,
			Gap:                      plan.Gap,
			RequiredSavingsRate:      plan.RequiredSavingsRate,
			IntermediateCalculations: plan.IntermediateCalculations,
			SimilarProfiles:          similar,
		},
		ProfileID: profileID,
		Status:    string(models.PlanStatusSuccess),
	}
}

type CalculationsResponse struct {
	PlanID       string                          `json:"plan_id"`
	Calculations models.IntermediateCalculations `json:"calculations"`
	Status       string                          `json:"status"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

func NewErrorResponse(msg string) ErrorResponse {
	return ErrorResponse{Error: msg, Status: string(models.PlanStatusError)}
}
