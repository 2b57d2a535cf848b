package pipeline

import (
	"sort"
	"strings"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

// CategoryMatch is a scored attribute column.
type CategoryMatch struct {
	ID         models.AttributeID
	Confidence int
	Strategy   MatchStrategy
}

// audienceQualifiers names the patient-type keywords that textually match a
// column's audience, for the context bonus.
var audienceQualifiers = map[models.AttributeID][]string{
	models.AttrDosageNewborn: {"so sinh", "tre so sinh", "nhu nhi", "neonatal", "neonate"},
	models.AttrDosageChild:   {"tre em", "tre lon", "tre nho", "pediatric", "infant"},
}

// resolveCategories ranks the candidate columns. A column actually populated
// on at least one record scores the exact base; otherwise a substring match
// against a populated column scores the partial base. Context bonuses are
// added on top, capped per strategy. The sort is stable, so ties keep the
// dictionary order of the candidates.
func (e *Engine) resolveCategories(candidates []models.AttributeID, foldedQuery string, qc QueryContext) []CategoryMatch {
	var matches []CategoryMatch
	for _, id := range candidates {
		var m CategoryMatch
		switch {
		case e.catalog.Populated(id):
			m = CategoryMatch{ID: id, Confidence: e.scoring.ExactCategory, Strategy: StrategyExact}
		default:
			resolved, ok := e.partialCategory(id)
			if !ok {
				continue
			}
			m = CategoryMatch{ID: resolved, Confidence: e.scoring.PartialCategory, Strategy: StrategyPartial}
		}

		limit := e.scoring.ExactCap
		if m.Strategy == StrategyPartial {
			limit = e.scoring.PartialCap
		}
		m.Confidence += e.contextBonus(m.ID, foldedQuery, qc)
		if m.Confidence > limit {
			m.Confidence = limit
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// partialCategory maps an unpopulated candidate to a populated column whose
// identifier shares a substring with it, e.g. DOSAGE_* variants.
func (e *Engine) partialCategory(id models.AttributeID) (models.AttributeID, bool) {
	cand := strings.ToLower(string(id))
	for _, avail := range models.AllAttributeIDs {
		if !e.catalog.Populated(avail) {
			continue
		}
		a := strings.ToLower(string(avail))
		if strings.Contains(a, cand) || strings.Contains(cand, a) {
			return avail, true
		}
	}
	return "", false
}

// contextBonus rewards columns whose audience or class aligns with what the
// query actually describes.
func (e *Engine) contextBonus(id models.AttributeID, foldedQuery string, qc QueryContext) int {
	bonus := 0

	for _, qualifier := range audienceQualifiers[id] {
		matched := false
		for _, pt := range qc.PatientTypes {
			if pt == qualifier || containsPhrase(qualifier, pt) || containsPhrase(pt, qualifier) {
				matched = true
				break
			}
		}
		if matched {
			bonus += e.scoring.AudienceBonus
			break
		}
	}

	// A named condition or a "severe" marker points at the pediatric
	// higher-dose column rather than the neonatal one.
	if id == models.AttrDosageChild && (len(qc.Conditions) > 0 || hasSevereMarker(qc)) {
		bonus += e.scoring.SeverityBonus
	}

	if id.IsContraindication() && asksContraindication(foldedQuery) {
		bonus += e.scoring.ContraBonus
	}
	return bonus
}

func hasSevereMarker(qc QueryContext) bool {
	for _, s := range qc.Severities {
		switch s {
		case "nang", "rat nang", "nghiem trong", "severe":
			return true
		}
	}
	return false
}

func asksContraindication(foldedQuery string) bool {
	for _, phrase := range []string{"chong chi dinh", "khong duoc dung", "contraindication", "contraindications"} {
		if containsPhrase(foldedQuery, phrase) {
			return true
		}
	}
	return false
}
