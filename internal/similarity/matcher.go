package similarity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"retire-rag/internal/models"

	"go.uber.org/zap"
)

var ErrFeatureExtraction = errors.New("failed to extract profile features")

const DefaultStrategy = "Balanced investment with focus on tax-advantaged accounts"

const (
	ageWeight           = 0.4
	incomeWeight        = 0.3
	savingsWeight       = 0.2
	retirementAgeWeight = 0.1

	ageSpan           = 50.0
	retirementAgeSpan = 20.0
)

// Features are the values two profiles are compared on.
type Features struct {
	Age           float64
	Income        float64
	Savings       float64
	RetirementAge float64
}

// FeaturesFromMap reads features from a stored profile's raw input. Missing
// keys count as zero; present values that are not numbers are an error.
func FeaturesFromMap(data map[string]any) (Features, error) {
	var (
		f   Features
		err error
	)
	fields := []struct {
		key string
		dst *float64
	}{
		{"age", &f.Age},
		{"income", &f.Income},
		{"currentSavings", &f.Savings},
		{"retirementAge", &f.RetirementAge},
	}
	for _, field := range fields {
		raw, ok := data[field.key]
		if !ok {
			continue
		}
		if *field.dst, err = toFloat(raw); err != nil {
			return Features{}, fmt.Errorf("%w: %s: %v", ErrFeatureExtraction, field.key, err)
		}
	}
	return f, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}

// Distance is the weighted, normalized difference between two profiles; 0 is identical.
func Distance(current, other Features) float64 {
	return ageWeight*math.Abs(other.Age-current.Age)/ageSpan +
		incomeWeight*math.Abs(other.Income-current.Income)/math.Max(current.Income, 1) +
		savingsWeight*math.Abs(other.Savings-current.Savings)/math.Max(current.Savings, 1) +
		retirementAgeWeight*math.Abs(other.RetirementAge-current.RetirementAge)/retirementAgeSpan
}

// Score converts a distance into a similarity percentage in [0, 100].
func Score(distance float64) int {
	s := math.Round(100 * (1 - distance))
	return int(math.Max(0, math.Min(100, s)))
}

type Matcher struct {
	logger *zap.Logger
}

func NewMatcher(logger *zap.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// FindSimilar ranks stored profiles by similarity to current, most similar
// first. Profiles identical on every feature are treated as the user's own
// record and skipped, as are profiles whose features cannot be read. Equal
// scores keep store order.
func (m *Matcher) FindSimilar(current Features, profiles []*models.UserProfile, maxResults int) []models.SimilarProfile {
	out := make([]models.SimilarProfile, 0, len(profiles))
	for _, p := range profiles {
		if p == nil {
			continue
		}
		f, err := FeaturesFromMap(p.Data)
		if err != nil {
			m.logger.Warn("Skipping profile in similarity search", zap.String("profile_id", p.ID.String()), zap.Error(err))
			continue
		}
		if f == current {
			continue
		}
		out = append(out, models.SimilarProfile{
			ProfileID:  p.ID.String(),
			Similarity: Score(Distance(current, f)),
			Age:        int(f.Age),
			Income:     f.Income,
			Savings:    f.Savings,
			Strategy:   DefaultStrategy,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if maxResults >= 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}
