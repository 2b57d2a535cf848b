package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

func TestLoadDrugs_Workbook(t *testing.T) {
	records, err := loadDrugs("drugs.json")
	require.NoError(t, err)
	require.Len(t, records, 3)

	for _, rec := range records {
		assert.NotEmpty(t, rec.Name)
		assert.NotEqual(t, "", rec.ID.String())
		// Every record carries the full attribute set; unseeded cells are empty.
		for _, id := range models.AllAttributeIDs {
			_, ok := rec.Attributes[id]
			assert.True(t, ok, "record %s missing attribute %s", rec.Name, id)
		}
	}
}

func TestLoadDrugs_RejectsUnknownAttribute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	workbook := `[{"name":"Ibuprofen","attributes":{"DOSAGE_ADULT":"irrelevant"}}]`
	require.NoError(t, os.WriteFile(path, []byte(workbook), 0644))

	_, err := loadDrugs(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOSAGE_ADULT")
}

func TestLoadDrugs_RejectsMissingName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noname.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"aliases":["x"]}]`), 0644))

	_, err := loadDrugs(path)
	require.Error(t, err)
}

// The attribute table DDL must declare the exact columns the drug repository
// reads and writes: drug_id, attribute, content.
func TestSchema_DrugAttributeColumns(t *testing.T) {
	var ddl string
	for _, stmt := range schema {
		if strings.Contains(stmt, "drug_attributes") {
			ddl = stmt
			break
		}
	}
	require.NotEmpty(t, ddl)

	assert.Contains(t, ddl, "drug_id UUID")
	assert.Contains(t, ddl, "attribute TEXT")
	assert.Contains(t, ddl, "content TEXT")
	assert.Contains(t, ddl, "PRIMARY KEY (drug_id, attribute)")
	assert.NotContains(t, ddl, "attribute_id")
}
