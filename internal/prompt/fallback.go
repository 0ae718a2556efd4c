package prompt

import (
	"fmt"
	"strings"

	"retire-rag/internal/projection"
	"retire-rag/internal/retrieval"
)

// Fallback renders a plan from the projection alone, for when the narrative
// generator is unavailable. It only formats values that are already computed.
func Fallback(p projection.Profile, r projection.Result) string {
	var b strings.Builder

	standing := "behind"
	if p.Savings >= r.BenchmarkSavings {
		standing = "ahead of"
	}
	job := p.Job
	if job == "" {
		job = "professional"
	}
	who := fmt.Sprintf("%d-year-old", p.Age)
	if p.Gender != "" {
		who += " " + p.Gender
	}

	b.WriteString("## Your Personalized Retirement Plan\n\n")
	fmt.Fprintf(&b, "As a %s working as a %s with %s saved, you are %s the benchmark of %s for your age and income.\n\n",
		who, job, retrieval.Money(p.Savings), standing, retrieval.Money(r.BenchmarkSavings))

	b.WriteString("### Current Status\n")
	fmt.Fprintf(&b, "- Age: %d\n", p.Age)
	fmt.Fprintf(&b, "- Current Savings: %s\n", retrieval.Money(p.Savings))
	fmt.Fprintf(&b, "- Annual Income: %s\n", retrieval.Money(p.Income))
	fmt.Fprintf(&b, "- Target Retirement Age: %d\n", p.RetirementAge)
	fmt.Fprintf(&b, "- Retirement Goal: %s\n", retrieval.Money(p.Goal))
	fmt.Fprintf(&b, "- Years Until Retirement: %d\n\n", r.YearsLeft)

	b.WriteString("### Projections\n")
	fmt.Fprintf(&b, "Saving %s of your income, you are projected to have %s by age %d.\n",
		percent(projection.ContributionRate), retrieval.Money(r.FinalProjectedSavings), p.RetirementAge)
	b.WriteString("This assumes:\n")
	fmt.Fprintf(&b, "- Annual contributions of %s (%s)\n", percent(projection.ContributionRate), retrieval.Money(r.AnnualContribution))
	fmt.Fprintf(&b, "- Average annual return of %s\n", percent(projection.ReturnRate))
	b.WriteString("- No withdrawals before retirement\n")
	fmt.Fprintf(&b, "- Income keeping pace with %s inflation\n\n", percent(projection.InflationRate))

	b.WriteString("### Action Plan\n")
	if r.RequiredSavingsRate > 0 {
		fmt.Fprintf(&b, "- Raise your savings rate to %s of income\n", percent(r.RequiredSavingsRate))
	}
	b.WriteString("- Automate contributions to your retirement accounts\n")
	b.WriteString("- Review and rebalance your portfolio once a year\n")
	b.WriteString("- Keep an emergency fund of 3 to 6 months of expenses\n")
	b.WriteString("- Consider working with a financial advisor\n\n")

	b.WriteString("### Key Recommendations\n")
	if p.HasMortgage {
		line := "- Pay off your mortgage before retirement to lower fixed expenses"
		if p.Income > 0 {
			line += fmt.Sprintf(" (the balance is %s of your annual income)", percent(p.MortgageBalance/p.Income))
		}
		b.WriteString(line + "\n")
	} else {
		b.WriteString("- Consider buying a home if it fits your situation\n")
	}
	if p.HasInvestment {
		share := 0.0
		if p.Savings > 0 {
			share = p.InvestmentValue / p.Savings
		}
		fmt.Fprintf(&b, "- Keep up your investment strategy; investments make up %s of your savings\n", percent(share))
	} else {
		b.WriteString("- Start investing in a diversified portfolio of low-cost index funds\n")
	}
	b.WriteString("- Fill tax-advantaged accounts (401(k), IRA) before taxable investments\n")
	if r.Gap > 0 {
		fmt.Fprintf(&b, "- Increase your savings to close the %s gap to your goal\n\n", retrieval.Money(r.Gap))
	} else {
		b.WriteString("- Maintain your savings habits; you are on track for your goal\n\n")
	}

	b.WriteString("### Watch-outs\n")
	b.WriteString("- Market volatility can hurt short-term returns\n")
	b.WriteString("- Healthcare costs rise in retirement\n")
	b.WriteString("- Social Security rules may change\n")
	b.WriteString("- Inflation erodes purchasing power\n\n")

	b.WriteString("### Final Thoughts\n")
	if r.Gap <= 0 {
		b.WriteString("You are in a strong position. Stay consistent and keep investing and you are on track to retire comfortably.\n")
	} else {
		b.WriteString("There is work to do, and every step forward counts. Stay committed to the plan and you will build the retirement you want.\n")
	}
	return b.String()
}
