package prompt

import (
	"fmt"
	"strings"

	"retire-rag/internal/models"
	"retire-rag/internal/projection"
	"retire-rag/internal/retrieval"
)

const SystemPrompt = `You are a retirement planning assistant. Use the structured facts, the retrieved context, the user's details and insights from similar users to write a personalized retirement plan.
The plan must be detailed, actionable and tailored to the user's specific situation.`

type Inputs struct {
	Profile    projection.Profile
	Facts      string
	RAGContext string
	Similar    []models.SimilarProfile
}

// Build renders the system and user prompts for the narrative generator.
func Build(in Inputs) (string, string) {
	p := in.Profile
	var b strings.Builder

	b.WriteString("[User Info]\n")
	fmt.Fprintf(&b, "Age: %d\n", p.Age)
	fmt.Fprintf(&b, "Income: %s\n", retrieval.Money(p.Income))
	fmt.Fprintf(&b, "Savings: %s\n", retrieval.Money(p.Savings))
	fmt.Fprintf(&b, "Retirement Goal: %s\n", retrieval.Money(p.Goal))
	fmt.Fprintf(&b, "Retirement Age: %d\n", p.RetirementAge)
	if p.HasMortgage {
		fmt.Fprintf(&b, "Mortgage: %s over %d years\n", retrieval.Money(p.MortgageBalance), p.MortgageTerm)
	}
	if p.HasInvestment {
		fmt.Fprintf(&b, "Investments: %s\n", retrieval.Money(p.InvestmentValue))
	}

	b.WriteString("\n[Structured Facts]\n")
	b.WriteString(in.Facts)
	b.WriteString("\n\n[Retrieved Context]\n")
	b.WriteString(CleanRAGFacts(in.RAGContext))
	b.WriteString("\n")

	if len(in.Similar) > 0 {
		b.WriteString("\n[Similar Profile Insights]\n")
		for _, s := range in.Similar {
			fmt.Fprintf(&b, "Similar profile (%d%% match):\n", s.Similarity)
			fmt.Fprintf(&b, "- Age: %d, Income: %s, Savings: %s\n", s.Age, retrieval.Money(s.Income), retrieval.Money(s.Savings))
			fmt.Fprintf(&b, "- Recommended strategy: %s\n", s.Strategy)
		}
	}

	b.WriteString("\n[Request]\n")
	b.WriteString("Please generate a detailed and personalized retirement strategy using all the information above.\n")
	return SystemPrompt, b.String()
}

// CleanRAGFacts trims lines, drops blank and repeated lines and separates the
// rest with blank lines.
func CleanRAGFacts(text string) string {
	seen := make(map[string]struct{})
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n\n")
}

func percent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
