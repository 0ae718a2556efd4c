package facts

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const factsJSON = `{
  "retirement_facts": {
    "contribution_limits": {
      "401k": {"employee_limit": 23000, "catch_up_50_plus": 7500},
      "ira": {"limit": 7000}
    },
    "social_security": {"full_retirement_age": 67, "earliest_claim_age": 62},
    "rmd_start_age": 73,
    "tax_brackets": [10, 12, 22]
  },
  "version": "2024"
}`

func TestParse_KeepsDocumentOrder(t *testing.T) {
	tree, err := Parse([]byte(factsJSON), "retirement_facts")
	require.NoError(t, err)

	keys := make([]string, 0, tree.Len())
	for _, e := range tree.Entries {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"contribution_limits", "social_security", "rmd_start_age", "tax_brackets"}, keys)

	e, ok := tree.Get("contribution_limits", "401k", "catch_up_50_plus")
	require.True(t, ok)
	assert.True(t, e.IsLeaf())
	assert.Equal(t, "7500", e.Value)

	_, ok = tree.Get("contribution_limits", "roth")
	assert.False(t, ok)
}

func TestParse_MissingRootKeyUsesWholeDocument(t *testing.T) {
	tree, err := Parse([]byte(factsJSON), "pension_facts")
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())

	e, ok := tree.Get("version")
	require.True(t, ok)
	assert.Equal(t, "2024", e.Value)
}

func TestParse_YAMLAndErrors(t *testing.T) {
	tree, err := Parse([]byte("medicare:\n  eligibility_age: 65\n  parts: [A, B]\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "medicare: eligibility age: 65\nmedicare: parts: [A, B]", tree.Flatten())

	_, err = Parse([]byte("- a\n- b\n"), "")
	assert.ErrorIs(t, err, ErrNotMapping)

	_, err = Parse([]byte("{not valid"), "")
	assert.Error(t, err)

	tree, err = Parse(nil, "")
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())
}

func TestFlatten(t *testing.T) {
	tree, err := Parse([]byte(factsJSON), "retirement_facts")
	require.NoError(t, err)

	want := "contribution limits: 401k: employee limit: 23000\n" +
		"contribution limits: 401k: catch up 50 plus: 7500\n" +
		"contribution limits: ira: limit: 7000\n" +
		"social security: full retirement age: 67\n" +
		"social security: earliest claim age: 62\n" +
		"rmd start age: 73\n" +
		"tax brackets: [10, 12, 22]"
	assert.Equal(t, want, tree.Flatten())
}

func TestStore_LoadsOnce(t *testing.T) {
	var reads atomic.Int32
	s := NewStore("facts.json", "retirement_facts", zap.NewNop())
	s.readFile = func(string) ([]byte, error) {
		reads.Add(1)
		return []byte(factsJSON), nil
	}

	assert.Equal(t, 4, s.Tree().Len())
	assert.Contains(t, s.Flattened(), "rmd start age: 73")
	assert.Same(t, s.Tree(), s.Tree())
	assert.Equal(t, int32(1), reads.Load())
}

func TestStore_UnreadableDocumentGivesEmptyTree(t *testing.T) {
	s := NewStore("missing.json", "retirement_facts", zap.NewNop())
	s.readFile = func(string) ([]byte, error) { return nil, errors.New("no such file") }

	require.NotNil(t, s.Tree())
	assert.Equal(t, 0, s.Tree().Len())
	assert.Empty(t, s.Flattened())
}
