package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

func TestResolveCategories_ExactBase(t *testing.T) {
	engine := testEngine()
	matches := engine.resolveCategories(
		[]models.AttributeID{models.AttrSideEffects},
		fold("meropenem tác dụng phụ"), QueryContext{})

	require.Len(t, matches, 1)
	assert.Equal(t, models.AttrSideEffects, matches[0].ID)
	assert.Equal(t, 100, matches[0].Confidence)
	assert.Equal(t, StrategyExact, matches[0].Strategy)
}

func TestResolveCategories_UnpopulatedDropped(t *testing.T) {
	// Monitoring has no data on any record and shares no identifier
	// substring with a populated column.
	matches := testEngine().resolveCategories(
		[]models.AttributeID{models.AttrMonitoring},
		fold("theo dõi"), QueryContext{})

	assert.Empty(t, matches)
}

func TestResolveCategories_AudienceBonus(t *testing.T) {
	engine := testEngine()
	qc := QueryContext{PatientTypes: []string{"tre em"}}
	matches := engine.resolveCategories(
		[]models.AttributeID{models.AttrDosageNewborn, models.AttrDosageChild},
		fold("liều cho trẻ em"), qc)

	require.Len(t, matches, 2)
	assert.Equal(t, models.AttrDosageChild, matches[0].ID)
	assert.Equal(t, 130, matches[0].Confidence)
	assert.Equal(t, models.AttrDosageNewborn, matches[1].ID)
	assert.Equal(t, 100, matches[1].Confidence)
}

func TestResolveCategories_ConditionBoostsPediatricColumn(t *testing.T) {
	engine := testEngine()
	qc := QueryContext{Conditions: []string{"viem mang nao"}}
	matches := engine.resolveCategories(
		[]models.AttributeID{models.AttrDosageNewborn, models.AttrDosageChild},
		fold("liều cho viêm màng não"), qc)

	require.Len(t, matches, 2)
	assert.Equal(t, models.AttrDosageChild, matches[0].ID)
	assert.Greater(t, matches[0].Confidence, matches[1].Confidence)
}

func TestResolveCategories_ContraindicationBonus(t *testing.T) {
	engine := testEngine()
	matches := engine.resolveCategories(
		[]models.AttributeID{models.AttrContraindications},
		fold("paracetamol chống chỉ định"), QueryContext{})

	require.Len(t, matches, 1)
	assert.Equal(t, 140, matches[0].Confidence)
}

func TestResolveCategories_ExactCapAt150(t *testing.T) {
	engine := testEngine()
	qc := QueryContext{
		PatientTypes: []string{"tre em"},
		Conditions:   []string{"viem mang nao"},
		Severities:   []string{"nang"},
	}
	matches := engine.resolveCategories(
		[]models.AttributeID{models.AttrDosageChild},
		fold("liều trẻ em viêm màng não nặng"), qc)

	require.Len(t, matches, 1)
	assert.LessOrEqual(t, matches[0].Confidence, 150)
}

func TestResolveCategories_TiesKeepDictionaryOrder(t *testing.T) {
	engine := testEngine()
	matches := engine.resolveCategories(
		[]models.AttributeID{models.AttrDosageNewborn, models.AttrDosageChild},
		fold("liều dùng"), QueryContext{})

	require.Len(t, matches, 2)
	assert.Equal(t, matches[0].Confidence, matches[1].Confidence)
	assert.Equal(t, models.AttrDosageNewborn, matches[0].ID)
	assert.Equal(t, models.AttrDosageChild, matches[1].ID)
}

func TestResolveCategories_SortedNonIncreasing(t *testing.T) {
	engine := testEngine()
	qc := QueryContext{PatientTypes: []string{"so sinh"}}
	matches := engine.resolveCategories(
		[]models.AttributeID{models.AttrDosageChild, models.AttrDosageNewborn, models.AttrSideEffects},
		fold("liều sơ sinh"), qc)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence, matches[i].Confidence)
	}
}
