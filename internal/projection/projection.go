package projection

import (
	"math"

	"retire-rag/internal/models"
)

// Fixed planning assumptions.
const (
	ContributionRate = 0.15
	ReturnRate       = 0.065
	InflationRate    = 0.03

	MinSavingsRate = 0.15
	MaxSavingsRate = 0.50
)

var benchmarks = []struct {
	age        int
	multiplier float64
}{
	{30, 1}, {35, 2}, {40, 3}, {45, 4}, {50, 6}, {55, 7}, {60, 8}, {65, 10},
}

type Input struct {
	Age            int
	RetirementAge  int
	CurrentSavings float64
	AnnualIncome   float64
	Goal           float64
}

type Year struct {
	Year         int
	Contribution float64
	Growth       float64
	Cumulative   float64
}

type Result struct {
	YearsLeft             int
	AnnualContribution    float64
	Years                 []Year
	FinalProjectedSavings float64
	Gap                   float64
	RequiredSavingsRate   float64
	BenchmarkAge          int
	BenchmarkSavings      float64
}

// Project simulates the savings balance year by year until retirement. Each
// year's growth is earned on the balance before that year's contribution.
func Project(in Input) Result {
	res := Result{
		YearsLeft:          in.RetirementAge - in.Age,
		AnnualContribution: in.AnnualIncome * ContributionRate,
	}

	balance := in.CurrentSavings
	if res.YearsLeft > 0 {
		res.Years = make([]Year, 0, res.YearsLeft)
	}
	for y := 1; y <= res.YearsLeft; y++ {
		growth := balance * ReturnRate
		balance += growth + res.AnnualContribution
		res.Years = append(res.Years, Year{
			Year:         in.Age + y,
			Contribution: res.AnnualContribution,
			Growth:       growth,
			Cumulative:   balance,
		})
	}

	res.FinalProjectedSavings = balance
	res.Gap = in.Goal - balance
	res.RequiredSavingsRate = RequiredSavingsRate(in.Goal, in.CurrentSavings, in.AnnualIncome, res.YearsLeft)

	var multiplier float64
	res.BenchmarkAge, multiplier = Benchmark(in.Age)
	res.BenchmarkSavings = in.AnnualIncome * multiplier
	return res
}

// RequiredSavingsRate is the share of income needed to reach goal, clamped to
// [MinSavingsRate, MaxSavingsRate]. It is 0 when there are no years left.
func RequiredSavingsRate(goal, savings, income float64, yearsLeft int) float64 {
	if yearsLeft <= 0 {
		return 0
	}
	if income <= 0 {
		if goal > savings {
			return MaxSavingsRate
		}
		return MinSavingsRate
	}
	rate := (goal - savings) / (income * float64(yearsLeft))
	return math.Min(math.Max(rate, MinSavingsRate), MaxSavingsRate)
}

// Benchmark returns the benchmark age closest to age and its income multiplier.
// When two benchmark ages are equally close the lower one wins.
func Benchmark(age int) (int, float64) {
	best := benchmarks[0]
	bestDist := abs(age - best.age)
	for _, b := range benchmarks[1:] {
		if d := abs(age - b.age); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best.age, best.multiplier
}

// Intermediate splits the yearly projection into the series returned to clients.
func (r Result) Intermediate() models.IntermediateCalculations {
	calc := models.IntermediateCalculations{
		Contributions: make([]models.YearAmount, len(r.Years)),
		Growth:        make([]models.YearAmount, len(r.Years)),
		Cumulative:    make([]models.YearAmount, len(r.Years)),
	}
	for i, y := range r.Years {
		calc.Contributions[i] = models.YearAmount{Year: y.Year, Amount: y.Contribution}
		calc.Growth[i] = models.YearAmount{Year: y.Year, Amount: y.Growth}
		calc.Cumulative[i] = models.YearAmount{Year: y.Year, Amount: y.Cumulative}
	}
	return calc
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
