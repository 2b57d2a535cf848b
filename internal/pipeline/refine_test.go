package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSections(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		titles []string
	}{
		{
			name:   "markdown headings",
			raw:    "### Viêm màng não\n40 mg/kg\n### Nhiễm khuẩn nhẹ\n20 mg/kg",
			titles: []string{"Viêm màng não", "Nhiễm khuẩn nhẹ"},
		},
		{
			name:   "bold headings",
			raw:    "**Sơ sinh**\n10 mg/kg\n**Trẻ em**:\n15 mg/kg",
			titles: []string{"Sơ sinh", "Trẻ em"},
		},
		{
			name:   "flat text",
			raw:    "10-15 mg/kg mỗi 4-6 giờ",
			titles: nil,
		},
		{
			name:   "single heading stays flat",
			raw:    "### Liều\n10 mg/kg",
			titles: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sections := parseSections(tc.raw)
			if tc.titles == nil {
				assert.Nil(t, sections)
				return
			}
			require.Len(t, sections, len(tc.titles))
			for i, title := range tc.titles {
				assert.Equal(t, title, sections[i].Title)
				assert.NotEmpty(t, sections[i].Detail)
			}
		})
	}
}

func TestRefineContent_EmptyContextPassthrough(t *testing.T) {
	raw := "Suy gan   nặng; dị ứng paracetamol"
	ref := refineContent(raw, QueryContext{})

	assert.False(t, ref.Narrowed)
	assert.Equal(t, "Suy gan nặng; dị ứng paracetamol", ref.Text)
}

func TestRefineContent_NestedOverview(t *testing.T) {
	ref := refineContent(meropenemDosage, QueryContext{})

	assert.False(t, ref.Narrowed)
	assert.Contains(t, ref.Text, "1) Viêm màng não")
	assert.Contains(t, ref.Text, "2) Nhiễm khuẩn nhẹ")
}

func TestRefineContent_OverviewSnippetsAreBounded(t *testing.T) {
	long := strings.Repeat("rất dài ", 60)
	raw := "### Mục một\n" + long + "\n### Mục hai\nngắn"
	ref := refineContent(raw, QueryContext{})

	for _, line := range strings.Split(ref.Text, "\n")[1:] {
		assert.LessOrEqual(t, len([]rune(line)), snippetLimit+len([]rune("Mục một: "))+1)
	}
}

func TestRefineContent_NestedNarrowsToMatchingSection(t *testing.T) {
	qc := QueryContext{Conditions: []string{"viem mang nao"}}
	ref := refineContent(meropenemDosage, qc)

	assert.True(t, ref.Narrowed)
	assert.Contains(t, ref.Text, "Viêm màng não")
	assert.Contains(t, ref.Text, "40 mg/kg")
	assert.NotContains(t, ref.Text, "20 mg/kg")
}

func TestRefineContent_NestedFallsBackToFragments(t *testing.T) {
	raw := "### Trẻ em\nDùng 20 mg/kg khi viêm phổi.\n### Ghi chú\nKhông dữ liệu sơ sinh."
	// The context keyword appears in a detail only after flattening fails to
	// match any title; here "dong kinh" matches nothing at all.
	qc := QueryContext{Conditions: []string{"dong kinh"}}
	ref := refineContent(raw, qc)

	assert.False(t, ref.Narrowed)
	assert.NotEmpty(t, ref.Text)
}

func TestRefineContent_FlatFragmentFiltering(t *testing.T) {
	raw := "Giảm liều khi suy thận. Không cần chỉnh khi suy gan. Theo dõi công thức máu."
	qc := QueryContext{Conditions: []string{"suy than"}}
	ref := refineContent(raw, qc)

	assert.True(t, ref.Narrowed)
	assert.Contains(t, ref.Text, "suy thận")
	assert.NotContains(t, ref.Text, "công thức máu")
}

func TestRefineContent_FlatDeduplicatesFragments(t *testing.T) {
	raw := "Giảm liều khi suy thận; giảm liều khi suy thận"
	qc := QueryContext{Conditions: []string{"suy than"}}
	ref := refineContent(raw, qc)

	assert.True(t, ref.Narrowed)
	assert.Equal(t, 1, strings.Count(fold(ref.Text), "suy than"))
}

func TestRefineContent_DeterministicForSameContext(t *testing.T) {
	qc := QueryContext{Conditions: []string{"viem mang nao"}}
	first := refineContent(meropenemDosage, qc)
	second := refineContent(meropenemDosage, qc)

	assert.Equal(t, first, second)
}

func TestStripMarkup(t *testing.T) {
	raw := "### Tiêu đề\n- gạch đầu dòng\n**đậm** và   thừa   khoảng trắng"
	got := stripMarkup(raw)

	assert.NotContains(t, got, "#")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "- ")
	assert.Contains(t, got, "Tiêu đề")
	assert.Contains(t, got, "đậm và thừa khoảng trắng")
}
