package projection

import (
	"fmt"
	"strings"

	"retire-rag/internal/dto"
)

const (
	MinAge = 18
	MaxAge = 100

	// RetirementAgeOffset is applied when the requested retirement age is not after the current age.
	RetirementAgeOffset = 5
)

// Profile is a validated, normalized plan request.
type Profile struct {
	Age                int
	RetirementAge      int
	Savings            float64
	Income             float64
	Goal               float64
	Gender             string
	Job                string
	Spending           float64
	HasMortgage        bool
	MortgageBalance    float64
	MortgageTerm       int
	DownPayment        float64
	DownPaymentPercent float64
	Assets             float64
	HasInsurance       bool
	InsurancePayment   float64
	HasInvestment      bool
	InvestmentValue    float64

	// Adjustments lists the corrections applied during normalization.
	Adjustments []string
}

// Normalize clamps age into [MinAge, MaxAge] and moves a retirement age that
// is not after the current age to age+RetirementAgeOffset.
func Normalize(in *dto.RetirementInput) Profile {
	p := Profile{
		Age:              in.Age,
		RetirementAge:    in.RetirementAge,
		Savings:          in.CurrentSavings,
		Income:           in.Income,
		Goal:             in.RetirementSavingsGoal,
		Gender:           in.Gender,
		Job:              in.CurrentJob,
		Spending:         in.Spending,
		HasMortgage:      yes(in.HasMortgage),
		MortgageBalance:  in.MortgageAmount,
		MortgageTerm:     in.MortgageTerm,
		DownPayment:      in.DownPayment,
		Assets:           in.Assets,
		HasInsurance:     yes(in.HasInsurance),
		InsurancePayment: in.InsurancePayment,
		HasInvestment:    yes(in.HasInvestment),
		InvestmentValue:  in.InvestmentAmount,
	}
	if in.DownPaymentPercent != nil {
		p.DownPaymentPercent = *in.DownPaymentPercent
	}

	if p.Age < MinAge || p.Age > MaxAge {
		clamped := max(MinAge, min(p.Age, MaxAge))
		p.Adjustments = append(p.Adjustments, fmt.Sprintf("age %d clamped to %d", p.Age, clamped))
		p.Age = clamped
	}
	if p.RetirementAge <= p.Age {
		p.Adjustments = append(p.Adjustments, fmt.Sprintf("retirement age %d not greater than age %d, using %d",
			p.RetirementAge, p.Age, p.Age+RetirementAgeOffset))
		p.RetirementAge = p.Age + RetirementAgeOffset
	}
	return p
}

func (p Profile) ProjectionInput() Input {
	return Input{
		Age:            p.Age,
		RetirementAge:  p.RetirementAge,
		CurrentSavings: p.Savings,
		AnnualIncome:   p.Income,
		Goal:           p.Goal,
	}
}

func yes(flag string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), "yes")
}
