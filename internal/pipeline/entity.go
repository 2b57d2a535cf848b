package pipeline

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

// MatchStrategy names the signal that produced a candidate's confidence.
type MatchStrategy string

const (
	StrategyExact   MatchStrategy = "exact"
	StrategyReverse MatchStrategy = "reverse"
	StrategyAlias   MatchStrategy = "alias"
	StrategyFuzzy   MatchStrategy = "fuzzy"
	StrategyPartial MatchStrategy = "partial"
)

// EntityMatch is a scored catalog record. Candidates live for one query only.
type EntityMatch struct {
	Record     *models.DrugRecord
	Confidence int
	Strategy   MatchStrategy
}

// resolveEntities scores every candidate string against every catalog record.
// A record may collect several signals; only its best survives. The result is
// sorted by confidence, non-increasing, and deduplicated by canonical name.
// An empty result is a normal terminal state meaning "unknown drug".
func (e *Engine) resolveEntities(candidates []string) []EntityMatch {
	best := make(map[string]EntityMatch)
	order := make([]string, 0, len(candidates))

	consider := func(rec *models.DrugRecord, confidence int, strategy MatchStrategy) {
		prev, ok := best[rec.Name]
		if !ok {
			order = append(order, rec.Name)
		}
		if !ok || confidence > prev.Confidence {
			best[rec.Name] = EntityMatch{Record: rec, Confidence: confidence, Strategy: strategy}
		}
	}

	for _, candidate := range candidates {
		cand := fold(candidate)
		if cand == "" {
			continue
		}
		for i := range e.catalog.records {
			rec := &e.catalog.records[i]
			name := fold(rec.Name)

			if strings.Contains(name, cand) {
				consider(rec, e.scoring.ExactEntity, StrategyExact)
			}
			if len(name) > 3 && strings.Contains(cand, name) {
				consider(rec, e.scoring.ReverseEntity, StrategyReverse)
			}
			for _, alias := range rec.Aliases {
				a := fold(alias)
				if a == "" {
					continue
				}
				if strings.Contains(a, cand) || strings.Contains(cand, a) {
					consider(rec, e.scoring.AliasEntity, StrategyAlias)
					break
				}
			}
			if similarity(cand, name) > e.scoring.FuzzyThreshold {
				consider(rec, e.scoring.FuzzyEntity, StrategyFuzzy)
			}
		}
	}

	matches := make([]EntityMatch, 0, len(order))
	for _, name := range order {
		matches = append(matches, best[name])
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// similarity is the normalized edit-distance score: 1 minus the Levenshtein
// distance over the longer string's length.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	if longer == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longer)
}
