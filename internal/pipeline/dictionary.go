package pipeline

import (
	"sort"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

// DictionaryEntry maps one folded trigger phrase to the attribute columns it
// asks about. A generic phrase may fan out to several columns ("liều" covers
// both the neonatal and the pediatric dosage column).
type DictionaryEntry struct {
	Phrase string
	IDs    []models.AttributeID
}

// CategoryDictionary is the static trigger-phrase table. Entries are matched
// longest-phrase-first so that "hiệu chỉnh liều theo chức năng thận" wins over
// the bare "liều" it contains.
type CategoryDictionary struct {
	entries []DictionaryEntry
}

// NewCategoryDictionary orders the entries longest-first, keeping the given
// order among phrases of equal length. Phrases must already be folded.
func NewCategoryDictionary(entries []DictionaryEntry) *CategoryDictionary {
	sorted := make([]DictionaryEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Phrase) > len(sorted[j].Phrase)
	})
	return &CategoryDictionary{entries: sorted}
}

// DefaultDictionary covers the Vietnamese trigger phrases of the consumer app
// plus the English synonyms that show up in practice.
func DefaultDictionary() *CategoryDictionary {
	return NewCategoryDictionary([]DictionaryEntry{
		{Phrase: "hieu chinh lieu theo chuc nang than", IDs: []models.AttributeID{models.AttrDoseAdjustRenal}},
		{Phrase: "hieu chinh lieu theo chuc nang gan", IDs: []models.AttributeID{models.AttrDoseAdjustHepatic}},
		{Phrase: "renal dose adjustment", IDs: []models.AttributeID{models.AttrDoseAdjustRenal}},
		{Phrase: "hepatic dose adjustment", IDs: []models.AttributeID{models.AttrDoseAdjustHepatic}},
		{Phrase: "chinh lieu theo than", IDs: []models.AttributeID{models.AttrDoseAdjustRenal}},
		{Phrase: "chinh lieu theo gan", IDs: []models.AttributeID{models.AttrDoseAdjustHepatic}},
		{Phrase: "chuc nang than", IDs: []models.AttributeID{models.AttrDoseAdjustRenal}},
		{Phrase: "chuc nang gan", IDs: []models.AttributeID{models.AttrDoseAdjustHepatic}},
		{Phrase: "renal function", IDs: []models.AttributeID{models.AttrDoseAdjustRenal}},
		{Phrase: "suy than", IDs: []models.AttributeID{models.AttrDoseAdjustRenal}},
		{Phrase: "suy gan", IDs: []models.AttributeID{models.AttrDoseAdjustHepatic}},
		{Phrase: "lieu so sinh", IDs: []models.AttributeID{models.AttrDosageNewborn}},
		{Phrase: "lieu tre em", IDs: []models.AttributeID{models.AttrDosageChild}},
		{Phrase: "lieu dung", IDs: []models.AttributeID{models.AttrDosageNewborn, models.AttrDosageChild}},
		{Phrase: "lieu luong", IDs: []models.AttributeID{models.AttrDosageNewborn, models.AttrDosageChild}},
		{Phrase: "lieu", IDs: []models.AttributeID{models.AttrDosageNewborn, models.AttrDosageChild}},
		{Phrase: "dosage", IDs: []models.AttributeID{models.AttrDosageNewborn, models.AttrDosageChild}},
		{Phrase: "dose", IDs: []models.AttributeID{models.AttrDosageNewborn, models.AttrDosageChild}},
		{Phrase: "chong chi dinh", IDs: []models.AttributeID{models.AttrContraindications}},
		{Phrase: "khong duoc dung", IDs: []models.AttributeID{models.AttrContraindications}},
		{Phrase: "contraindication", IDs: []models.AttributeID{models.AttrContraindications}},
		{Phrase: "contraindications", IDs: []models.AttributeID{models.AttrContraindications}},
		{Phrase: "tac dung khong mong muon", IDs: []models.AttributeID{models.AttrSideEffects}},
		{Phrase: "tac dung phu", IDs: []models.AttributeID{models.AttrSideEffects}},
		{Phrase: "phan ung co hai", IDs: []models.AttributeID{models.AttrSideEffects}},
		{Phrase: "side effects", IDs: []models.AttributeID{models.AttrSideEffects}},
		{Phrase: "side effect", IDs: []models.AttributeID{models.AttrSideEffects}},
		{Phrase: "cach su dung", IDs: []models.AttributeID{models.AttrAdministration}},
		{Phrase: "cach dung", IDs: []models.AttributeID{models.AttrAdministration}},
		{Phrase: "cach pha", IDs: []models.AttributeID{models.AttrAdministration}},
		{Phrase: "duong dung", IDs: []models.AttributeID{models.AttrAdministration}},
		{Phrase: "administration", IDs: []models.AttributeID{models.AttrAdministration}},
		{Phrase: "tuong tac thuoc", IDs: []models.AttributeID{models.AttrInteractions}},
		{Phrase: "tuong tac", IDs: []models.AttributeID{models.AttrInteractions}},
		{Phrase: "interaction", IDs: []models.AttributeID{models.AttrInteractions}},
		{Phrase: "interactions", IDs: []models.AttributeID{models.AttrInteractions}},
		{Phrase: "qua lieu", IDs: []models.AttributeID{models.AttrOverdose}},
		{Phrase: "ngo doc", IDs: []models.AttributeID{models.AttrOverdose}},
		{Phrase: "overdose", IDs: []models.AttributeID{models.AttrOverdose}},
		{Phrase: "theo doi dieu tri", IDs: []models.AttributeID{models.AttrMonitoring}},
		{Phrase: "theo doi", IDs: []models.AttributeID{models.AttrMonitoring}},
		{Phrase: "giam sat", IDs: []models.AttributeID{models.AttrMonitoring}},
		{Phrase: "monitoring", IDs: []models.AttributeID{models.AttrMonitoring}},
		{Phrase: "phan loai", IDs: []models.AttributeID{models.AttrClassification}},
		{Phrase: "nhom thuoc", IDs: []models.AttributeID{models.AttrClassification}},
		{Phrase: "classification", IDs: []models.AttributeID{models.AttrClassification}},
	})
}

// Match scans the folded query longest-phrase-first and returns the mapped
// columns in dictionary order, deduplicated. Once a phrase matches, shorter
// phrases contained in it are skipped so a generic trigger cannot fire inside
// a more specific one that already consumed it.
func (d *CategoryDictionary) Match(foldedQuery string) []models.AttributeID {
	var matchedPhrases []string
	var ids []models.AttributeID
	seen := make(map[models.AttributeID]bool)

	for _, entry := range d.entries {
		if !containsPhrase(foldedQuery, entry.Phrase) {
			continue
		}
		consumed := false
		for _, longer := range matchedPhrases {
			if containsPhrase(longer, entry.Phrase) {
				consumed = true
				break
			}
		}
		if consumed {
			continue
		}
		matchedPhrases = append(matchedPhrases, entry.Phrase)
		for _, id := range entry.IDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
