package retrieval

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// UserContext is the optional user information used to refine a query.
type UserContext struct {
	Age    *int
	Income *float64
}

// UserContextFromMap picks age and income out of a loosely typed user mapping.
// Values that are absent or not numeric are ignored.
func UserContextFromMap(data map[string]any) UserContext {
	var uc UserContext
	if v, ok := number(data["age"]); ok {
		age := int(v)
		uc.Age = &age
	}
	if v, ok := number(data["income"]); ok {
		uc.Income = &v
	}
	return uc
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

var abbreviations = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\b401k\b`), "401(k) retirement account"},
	{regexp.MustCompile(`(?i)\bira\b`), "individual retirement account"},
}

// Refine injects user context into a query and expands domain abbreviations.
// The age clause goes first, then the income clause, then the expansions. Both
// clauses carry the word they are checked against, so refining twice is a no-op.
func Refine(query string, uc UserContext) string {
	lower := strings.ToLower(query)
	if uc.Age != nil && !strings.Contains(lower, "age") {
		query = fmt.Sprintf("at age %d: %s", *uc.Age, query)
	}

	lower = strings.ToLower(query)
	if uc.Income != nil && !strings.Contains(lower, "income") && !strings.Contains(lower, "salary") {
		query = fmt.Sprintf("%s with %s income", query, Money(*uc.Income))
	}

	for _, a := range abbreviations {
		query = a.pattern.ReplaceAllString(query, a.replacement)
	}
	return query
}

var ruleKeywords = []string{
	"limit", "maximum", "minimum", "tax", "rule", "requirement",
	"penalty", "withdrawal", "contribution", "rmd", "required minimum",
	"social security", "medicare", "regulation", "legal",
}

// IsRuleBased reports whether the query asks about regulatory or quantitative facts.
func IsRuleBased(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range ruleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Money formats an amount as whole dollars with thousands separators.
func Money(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}
