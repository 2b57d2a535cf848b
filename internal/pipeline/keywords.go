package pipeline

import (
	"strings"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

// Keywords is the output of the extraction stage: drug-name candidates and the
// attribute columns the query asks about.
type Keywords struct {
	Drugs      []string
	Categories []models.AttributeID
}

// QueryContext holds the clinical keywords found in the query. It is used
// only for re-ranking categories and narrowing cell content, never for
// identifying the drug or the column.
type QueryContext struct {
	Conditions   []string
	Severities   []string
	PatientTypes []string
	Routes       []string
}

// IsEmpty reports whether no context keyword was found.
func (qc QueryContext) IsEmpty() bool {
	return len(qc.Conditions) == 0 && len(qc.Severities) == 0 &&
		len(qc.PatientTypes) == 0 && len(qc.Routes) == 0
}

// Keywords returns every context keyword in extraction order.
func (qc QueryContext) Keywords() []string {
	out := make([]string, 0, len(qc.Conditions)+len(qc.Severities)+len(qc.PatientTypes)+len(qc.Routes))
	out = append(out, qc.Conditions...)
	out = append(out, qc.Severities...)
	out = append(out, qc.PatientTypes...)
	out = append(out, qc.Routes...)
	return out
}

// The context tables are data, not code: adding a condition or a route is a
// table edit, independently testable. All phrases are folded, longest first
// within a table so multi-word phrases win their substrings.
var (
	conditionKeywords = []string{
		"soc nhiem khuan", "nhiem khuan huyet", "viem mang nao", "viem noi tam mac",
		"viem phoi", "viem tai giua", "viem xuong", "nhiem khuan tiet nieu",
		"nhiem khuan da", "nhiem khuan", "dong kinh", "co giat", "tieu chay",
		"sot ret", "hen", "lao",
	}
	severityKeywords = []string{
		"rat nang", "nghiem trong", "trung binh", "nang", "nhe", "severe", "mild",
	}
	patientTypeKeywords = []string{
		"tre so sinh", "so sinh", "nhu nhi", "tre dang bu me", "tre nho", "tre lon",
		"tre em", "neonatal", "neonate", "pediatric", "infant",
	}
	routeKeywords = []string{
		"truyen tinh mach", "tiem tinh mach", "tinh mach", "tiem bap", "duong uong",
		"khi dung", "tiem", "uong", "oral",
	}

	// Renal/hepatic qualifiers that suppress the generic dosage columns in
	// favor of the adjustment-specific ones.
	organQualifiers = []string{
		"chuc nang than", "chuc nang gan", "suy than", "suy gan", "renal", "hepatic",
	}
)

func matchTable(foldedQuery string, table []string) []string {
	var hits []string
	for _, phrase := range table {
		if containsPhrase(foldedQuery, phrase) {
			consumed := false
			for _, h := range hits {
				if containsPhrase(h, phrase) {
					consumed = true
					break
				}
			}
			if !consumed {
				hits = append(hits, phrase)
			}
		}
	}
	return hits
}

// ExtractContext pulls the condition, severity, patient-type and route
// keywords out of the raw query. Pure function of the query and the tables.
func ExtractContext(query string) QueryContext {
	folded := fold(query)
	// "nang" inside "chuc nang" (organ function) is not a severity marker.
	severityQuery := strings.ReplaceAll(folded, "chuc nang", "chucnang")
	return QueryContext{
		Conditions:   matchTable(folded, conditionKeywords),
		Severities:   matchTable(severityQuery, severityKeywords),
		PatientTypes: matchTable(folded, patientTypeKeywords),
		Routes:       matchTable(folded, routeKeywords),
	}
}

// extractKeywords finds drug-name candidates and category candidates in the
// query. Alias hits contribute canonical names; only when no alias matches do
// long non-stop-word tokens become fuzzy candidates for the entity resolver.
func (e *Engine) extractKeywords(query string) Keywords {
	folded := fold(query)
	var kw Keywords

	seenDrug := make(map[string]bool)
	for _, alias := range e.catalog.aliases {
		if !containsPhrase(folded, alias.folded) {
			continue
		}
		name := alias.record.Name
		if !seenDrug[name] {
			seenDrug[name] = true
			kw.Drugs = append(kw.Drugs, name)
		}
	}
	if len(kw.Drugs) == 0 {
		for _, token := range tokenize(folded) {
			if len(token) <= 4 || isStopWord(token) {
				continue
			}
			if !seenDrug[token] {
				seenDrug[token] = true
				kw.Drugs = append(kw.Drugs, token)
			}
		}
	}

	kw.Categories = e.dict.Match(folded)
	kw.Categories = suppressGenericDosage(folded, kw.Categories)
	return kw
}

// suppressGenericDosage drops the plain dosage columns when the query also
// carries a renal or hepatic qualifier and an adjustment column matched; in
// that case the asker wants the adjusted dose, not the usual one.
func suppressGenericDosage(foldedQuery string, ids []models.AttributeID) []models.AttributeID {
	hasAdjust := false
	hasGeneric := false
	for _, id := range ids {
		switch id {
		case models.AttrDoseAdjustRenal, models.AttrDoseAdjustHepatic:
			hasAdjust = true
		case models.AttrDosageNewborn, models.AttrDosageChild:
			hasGeneric = true
		}
	}
	if !hasAdjust || !hasGeneric {
		return ids
	}
	qualified := false
	for _, q := range organQualifiers {
		if containsPhrase(foldedQuery, q) {
			qualified = true
			break
		}
	}
	if !qualified {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		if id == models.AttrDosageNewborn || id == models.AttrDosageChild {
			continue
		}
		out = append(out, id)
	}
	return out
}
