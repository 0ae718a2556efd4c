package similarity

import (
	"encoding/json"
	"testing"

	"retire-rag/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func profile(data map[string]any) *models.UserProfile {
	return &models.UserProfile{ID: uuid.New(), Data: data}
}

func features(age, income, savings, retirementAge float64) map[string]any {
	return map[string]any{
		"age":            age,
		"income":         income,
		"currentSavings": savings,
		"retirementAge":  retirementAge,
	}
}

func TestFindSimilar(t *testing.T) {
	current := Features{Age: 40, Income: 100000, Savings: 50000, RetirementAge: 65}
	profiles := []*models.UserProfile{
		profile(features(40, 100000, 50000, 65)),
		profile(features(45, 100000, 50000, 65)),
		profile(features(40, 120000, 50000, 65)),
		profile(features(30, 100000, 50000, 65)),
		profile(map[string]any{"age": "forty", "income": 100000.0}),
		profile(features(50, 100000, 50000, 65)),
		profile(features(100, 1000000, 1000000, 100)),
		nil,
	}
	m := NewMatcher(zap.NewNop())

	top := m.FindSimilar(current, profiles, 3)
	require.Len(t, top, 3)
	assert.Equal(t, profiles[1].ID.String(), top[0].ProfileID)
	assert.Equal(t, 96, top[0].Similarity)
	assert.Equal(t, 94, top[1].Similarity)
	assert.Equal(t, profiles[3].ID.String(), top[2].ProfileID)
	assert.Equal(t, 92, top[2].Similarity)
	assert.Equal(t, 30, top[2].Age)
	assert.Equal(t, DefaultStrategy, top[2].Strategy)

	all := m.FindSimilar(current, profiles, 10)
	require.Len(t, all, 5)
	assert.Equal(t, profiles[5].ID.String(), all[3].ProfileID, "ties keep store order")
	assert.Equal(t, 0, all[4].Similarity)
	for i, p := range all {
		assert.NotEqual(t, profiles[0].ID.String(), p.ProfileID, "self match must be excluded")
		assert.GreaterOrEqual(t, p.Similarity, 0)
		assert.LessOrEqual(t, p.Similarity, 100)
		if i > 0 {
			assert.GreaterOrEqual(t, all[i-1].Similarity, p.Similarity)
		}
	}
}

func TestFindSimilar_Empty(t *testing.T) {
	m := NewMatcher(zap.NewNop())
	assert.Empty(t, m.FindSimilar(Features{Age: 40}, nil, 3))
}

func TestFeaturesFromMap(t *testing.T) {
	f, err := FeaturesFromMap(map[string]any{"age": json.Number("52"), "income": 70000})
	require.NoError(t, err)
	assert.Equal(t, Features{Age: 52, Income: 70000}, f)

	_, err = FeaturesFromMap(map[string]any{"retirementAge": nil})
	assert.ErrorIs(t, err, ErrFeatureExtraction)

	_, err = FeaturesFromMap(map[string]any{"currentSavings": "lots"})
	assert.ErrorIs(t, err, ErrFeatureExtraction)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 100, Score(0))
	assert.Equal(t, 100, Score(-0.5))
	assert.Equal(t, 0, Score(3))
	assert.Equal(t, 75, Score(0.25))
	assert.InDelta(t, 0.3, Distance(Features{Income: 0}, Features{Income: 1}), 1e-12)
}
