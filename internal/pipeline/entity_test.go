package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEntities_Strategies(t *testing.T) {
	engine := testEngine()

	tests := []struct {
		name       string
		candidate  string
		wantDrug   string
		wantScore  int
		wantMethod MatchStrategy
	}{
		{"exact containment", "paracetamol", "Paracetamol", 100, StrategyExact},
		{"candidate is substring", "meropen", "Meropenem", 100, StrategyExact},
		{"name inside candidate", "paracetamol 500mg sachet", "Paracetamol", 95, StrategyReverse},
		{"alias", "hapacol", "Paracetamol", 90, StrategyAlias},
		{"fuzzy one edit", "paracetamon", "Paracetamol", 80, StrategyFuzzy},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			matches := engine.resolveEntities([]string{tc.candidate})
			require.NotEmpty(t, matches)
			top := matches[0]
			assert.Equal(t, tc.wantDrug, top.Record.Name)
			assert.Equal(t, tc.wantScore, top.Confidence)
			assert.Equal(t, tc.wantMethod, top.Strategy)
		})
	}
}

func TestResolveEntities_ReverseContainment(t *testing.T) {
	// The canonical name is contained in the candidate, but the candidate is
	// not contained in the name, so only the reverse signal fires.
	matches := testEngine().resolveEntities([]string{"paracetamoll"})

	require.NotEmpty(t, matches)
	assert.Equal(t, "Paracetamol", matches[0].Record.Name)
	assert.Equal(t, 95, matches[0].Confidence)
	assert.Equal(t, StrategyReverse, matches[0].Strategy)
}

func TestResolveEntities_EmptyIsTerminal(t *testing.T) {
	assert.Empty(t, testEngine().resolveEntities([]string{"xyz123"}))
	assert.Empty(t, testEngine().resolveEntities(nil))
}

func TestResolveEntities_DeduplicatedBestSignal(t *testing.T) {
	// Both the canonical name and an alias hit the same record; only its best
	// surviving confidence is reported once.
	matches := testEngine().resolveEntities([]string{"paracetamol", "hapacol"})

	names := make(map[string]int)
	for _, m := range matches {
		names[m.Record.Name]++
	}
	assert.Equal(t, 1, names["Paracetamol"])
	assert.Equal(t, 100, matches[0].Confidence)
}

func TestResolveEntities_SortedNonIncreasing(t *testing.T) {
	matches := testEngine().resolveEntities([]string{"paracetamon", "meropenem", "hapacol"})

	require.GreaterOrEqual(t, len(matches), 2)
	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence, matches[i].Confidence)
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("meropenem", "meropenem"), 1e-9)
	assert.InDelta(t, 1-1.0/11, similarity("paracetamon", "paracetamol"), 1e-9)
	assert.Less(t, similarity("abc", "xyz"), 0.5)
	assert.Equal(t, 1.0, similarity("same", "same"))
}
