package pipeline

import (
	"strings"
	"time"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

// Cell is the extraction of one (drug, column) lookup, carrying the scores
// that produced it and the record's freshness marker.
type Cell struct {
	DrugName           string
	Attribute          models.AttributeID
	RawText            string
	EntityConfidence   int
	CategoryConfidence int
	LastUpdated        time.Time
}

// Empty reports whether the cell holds no usable text. An empty cell is a
// normal outcome (no data recorded for the combination), not an error.
func (c Cell) Empty() bool {
	return strings.TrimSpace(c.RawText) == ""
}

// extractCell is a pure lookup against the resolved record and column.
func extractCell(entity EntityMatch, category CategoryMatch) Cell {
	return Cell{
		DrugName:           entity.Record.Name,
		Attribute:          category.ID,
		RawText:            entity.Record.Attribute(category.ID),
		EntityConfidence:   entity.Confidence,
		CategoryConfidence: category.Confidence,
		LastUpdated:        entity.Record.UpdatedAt,
	}
}
