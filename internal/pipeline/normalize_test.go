package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Liều", "lieu"},
		{"CHỐNG CHỈ ĐỊNH", "chong chi dinh"},
		{"Viêm màng não", "viem mang nao"},
		{"đường uống", "duong uong"},
		{"Paracetamol", "paracetamol"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, fold(tc.in), "fold(%q)", tc.in)
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"lieu", "10", "mg", "kg"}, tokenize("lieu: 10 mg/kg."))
	assert.Empty(t, tokenize("  ... "))
}

func TestContainsPhrase_TokenBoundaries(t *testing.T) {
	tests := []struct {
		haystack string
		phrase   string
		want     bool
	}{
		{"viem mang nao nang", "nang", true},
		{"viem mang nao", "nang", false},   // inside "mang" would be a partial token
		{"khong duoc uong", "uong", true},  // "uong" as its own token
		{"khong", "uong", false},           // "uong" inside "khong"
		{"suy than man", "suy than", true},
		{"", "nang", false},
		{"nang", "", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, containsPhrase(tc.haystack, tc.phrase),
			"containsPhrase(%q, %q)", tc.haystack, tc.phrase)
	}
}

func TestCatalogIndexes(t *testing.T) {
	catalog := testCatalog()

	assert.Equal(t, 3, catalog.Len())
	assert.Equal(t, []string{"Amoxicillin", "Meropenem", "Paracetamol"}, catalog.Names())

	assert.True(t, catalog.Populated(models.AttrDosageChild))
	assert.True(t, catalog.Populated(models.AttrOverdose))
	assert.False(t, catalog.Populated(models.AttrMonitoring))

	rec := catalog.Lookup("PARACETAMOL")
	assert.NotNil(t, rec)
	assert.Equal(t, "Paracetamol", rec.Name)
	assert.Nil(t, catalog.Lookup("nonexistent"))
}
