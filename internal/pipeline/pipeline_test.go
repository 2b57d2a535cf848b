package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

func attrs(overrides map[models.AttributeID]string) map[models.AttributeID]string {
	m := make(map[models.AttributeID]string, len(models.AllAttributeIDs))
	for _, id := range models.AllAttributeIDs {
		m[id] = ""
	}
	for id, text := range overrides {
		m[id] = text
	}
	return m
}

const meropenemDosage = `### Viêm màng não
40 mg/kg/lần mỗi 8 giờ, truyền tĩnh mạch trong 15-30 phút.
### Nhiễm khuẩn nhẹ
20 mg/kg/lần mỗi 8 giờ.`

func testCatalog() *Catalog {
	return NewCatalog([]models.DrugRecord{
		{
			Name:    "Paracetamol",
			Aliases: []string{"Acetaminophen", "Hapacol"},
			Attributes: attrs(map[models.AttributeID]string{
				models.AttrClassification:    "Thuốc hạ sốt, giảm đau",
				models.AttrDosageNewborn:     "10 mg/kg/lần mỗi 6-8 giờ",
				models.AttrDosageChild:       "10-15 mg/kg/lần mỗi 4-6 giờ, tối đa 75 mg/kg/ngày",
				models.AttrContraindications: "Suy gan nặng; dị ứng paracetamol",
				models.AttrOverdose:          "Ngộ độc gan, dùng N-acetylcystein theo phác đồ",
			}),
		},
		{
			Name:    "Meropenem",
			Aliases: []string{"Meronem"},
			Attributes: attrs(map[models.AttributeID]string{
				models.AttrDosageNewborn:   "20 mg/kg/lần mỗi 12 giờ",
				models.AttrDosageChild:     meropenemDosage,
				models.AttrDoseAdjustRenal: "CrCl 25-50 ml/phút: giữ liều, giãn khoảng cách còn mỗi 12 giờ",
				models.AttrSideEffects:     "Tiêu chảy, phát ban, viêm tại chỗ tiêm",
			}),
		},
		{
			Name:    "Amoxicillin",
			Aliases: []string{"Amoxicilin", "Clamoxyl"},
			Attributes: attrs(map[models.AttributeID]string{
				models.AttrDosageChild:    "25-45 mg/kg/ngày chia 2 lần",
				models.AttrAdministration: "Uống, có thể dùng cùng thức ăn",
			}),
		},
	})
}

func testEngine(opts ...Option) *Engine {
	return NewEngine(testCatalog(), opts...)
}

type stubBackend struct {
	reply string
	err   error
	block bool
}

func (s *stubBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func TestAnswer_Contraindications(t *testing.T) {
	res := testEngine().Answer(context.Background(), "paracetamol chống chỉ định")

	require.True(t, res.Success)
	assert.Equal(t, "Paracetamol", res.DrugName)
	assert.Equal(t, models.AttrContraindications, res.Category)
	assert.Contains(t, res.Message, "Suy gan nặng")
	assert.Contains(t, res.Message, "dị ứng paracetamol")
	assert.Contains(t, res.Message, "CHỐNG CHỈ ĐỊNH")
	assert.False(t, res.UsedGenerative)
}

func TestAnswer_UnknownDrug(t *testing.T) {
	res := testEngine().Answer(context.Background(), "xyz123 liều dùng")

	require.False(t, res.Success)
	assert.Equal(t, StepEntity, res.Step)
	assert.Equal(t, CauseUnknownEntity, res.Cause)
	assert.Contains(t, res.Message, "chưa có trong cơ sở dữ liệu")
}

func TestAnswer_NestedNarrowing(t *testing.T) {
	res := testEngine().Answer(context.Background(), "meropenem liều cho viêm màng não")

	require.True(t, res.Success)
	assert.Equal(t, "Meropenem", res.DrugName)
	assert.Equal(t, models.AttrDosageChild, res.Category)
	assert.True(t, res.Narrowed)
	assert.Contains(t, res.Message, "Viêm màng não")
	assert.Contains(t, res.Message, "40 mg/kg")
	assert.NotContains(t, res.Message, "20 mg/kg")
}

func TestAnswer_EmptyField(t *testing.T) {
	// The overdose column is populated on paracetamol but blank on
	// amoxicillin, so category resolution succeeds and the cell is empty.
	res := testEngine().Answer(context.Background(), "amoxicillin quá liều")

	require.False(t, res.Success)
	assert.Equal(t, StepCell, res.Step)
	assert.Equal(t, CauseEmptyField, res.Cause)
	assert.Equal(t, "Amoxicillin", res.DrugName)
	assert.Contains(t, res.Message, "chưa có dữ liệu")
}

func TestAnswer_NoDrugTokens(t *testing.T) {
	res := testEngine().Answer(context.Background(), "hôm nay thế nào")

	require.False(t, res.Success)
	assert.Equal(t, StepKeywords, res.Step)
	assert.Equal(t, CauseNoEntityIdentified, res.Cause)
}

func TestAnswer_NoCategory(t *testing.T) {
	res := testEngine().Answer(context.Background(), "paracetamol là thuốc")

	require.False(t, res.Success)
	assert.Equal(t, StepCategory, res.Step)
	assert.Equal(t, CauseNoCategoryIdentified, res.Cause)
}

func TestAnswer_Deterministic(t *testing.T) {
	engine := testEngine()
	queries := []string{
		"paracetamol chống chỉ định",
		"meropenem liều cho viêm màng não",
		"amoxicillin cách dùng",
		"hôm nay thế nào",
	}
	for _, q := range queries {
		first := engine.Answer(context.Background(), q)
		second := engine.Answer(context.Background(), q)
		assert.Equal(t, first, second, "query %q", q)
	}
}

func TestAnswer_CaseAndAccentInsensitive(t *testing.T) {
	engine := testEngine()
	upper := engine.Answer(context.Background(), "PARACETAMOL liều")
	lower := engine.Answer(context.Background(), "paracetamol lieu")

	require.True(t, upper.Success)
	require.True(t, lower.Success)
	assert.Equal(t, upper.DrugName, lower.DrugName)
	assert.Equal(t, upper.Category, lower.Category)
}

func TestAnswer_AliasEquivalence(t *testing.T) {
	engine := testEngine()
	byAlias := engine.Answer(context.Background(), "hapacol liều dùng")
	byOther := engine.Answer(context.Background(), "acetaminophen liều dùng")

	require.True(t, byAlias.Success)
	require.True(t, byOther.Success)
	assert.Equal(t, "Paracetamol", byAlias.DrugName)
	assert.Equal(t, byAlias.DrugName, byOther.DrugName)
}

func TestAnswer_LongestPhrasePriority(t *testing.T) {
	res := testEngine().Answer(context.Background(), "meropenem hiệu chỉnh liều theo chức năng thận")

	require.True(t, res.Success)
	assert.Equal(t, models.AttrDoseAdjustRenal, res.Category)
}

func TestAnswer_FuzzyEntity(t *testing.T) {
	// One substitution away from the canonical name, no containment.
	res := testEngine().Answer(context.Background(), "paracetamon liều dùng")

	require.True(t, res.Success)
	assert.Equal(t, "Paracetamol", res.DrugName)
}

func TestAnswer_GenerativeReplacesMessage(t *testing.T) {
	backend := &stubBackend{reply: "Liều paracetamol cho trẻ em là 10-15 mg/kg mỗi 4-6 giờ."}
	engine := testEngine(WithGenerativeBackend(backend))

	res := engine.Answer(context.Background(), "paracetamol liều trẻ em")

	require.True(t, res.Success)
	assert.True(t, res.UsedGenerative)
	assert.Equal(t, backend.reply, res.Message)
	assert.Equal(t, "Paracetamol", res.DrugName)
}

func TestAnswer_GenerativeFailureFallsBack(t *testing.T) {
	backend := &stubBackend{err: errors.New("backend down")}
	engine := testEngine(WithGenerativeBackend(backend))

	res := engine.Answer(context.Background(), "paracetamol chống chỉ định")

	require.True(t, res.Success)
	assert.False(t, res.UsedGenerative)
	assert.NotEmpty(t, res.Message)
	assert.Contains(t, res.Message, "Suy gan nặng")
}

func TestAnswer_GenerativeTimeoutFallsBack(t *testing.T) {
	backend := &stubBackend{block: true}
	engine := testEngine(
		WithGenerativeBackend(backend),
		WithGenerativeTimeout(20*time.Millisecond),
	)

	start := time.Now()
	res := engine.Answer(context.Background(), "paracetamol liều dùng")

	require.True(t, res.Success)
	assert.False(t, res.UsedGenerative)
	assert.NotEmpty(t, res.Message)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAnswer_DosageCaution(t *testing.T) {
	res := testEngine().Answer(context.Background(), "amoxicillin liều cho trẻ em")

	require.True(t, res.Success)
	assert.True(t, res.Category.IsDosage())
	assert.Contains(t, res.Message, "bác sĩ hoặc dược sĩ")
}

func TestAnswer_ConfidenceIsMinOfStages(t *testing.T) {
	res := testEngine().Answer(context.Background(), "paracetamol chống chỉ định")

	require.True(t, res.Success)
	// Entity resolves exactly (100); category exact plus contraindication
	// bonus exceeds it, so the reported confidence is the entity's.
	assert.Equal(t, 100, res.Confidence)
}
