package models

import (
	"time"

	"github.com/google/uuid"
)

// AttributeID is the canonical key of one clinical column of the drug
// knowledge base. Every DrugRecord carries every AttributeID; a column with no
// data holds an empty string, the key is never absent.
type AttributeID string

const (
	AttrClassification    AttributeID = "CLASSIFICATION"
	AttrDosageNewborn     AttributeID = "DOSAGE_NEWBORN"
	AttrDosageChild       AttributeID = "DOSAGE_CHILD"
	AttrDoseAdjustRenal   AttributeID = "DOSE_ADJUST_RENAL"
	AttrDoseAdjustHepatic AttributeID = "DOSE_ADJUST_HEPATIC"
	AttrContraindications AttributeID = "CONTRAINDICATIONS"
	AttrSideEffects       AttributeID = "SIDE_EFFECTS"
	AttrAdministration    AttributeID = "ADMINISTRATION"
	AttrInteractions      AttributeID = "INTERACTIONS"
	AttrOverdose          AttributeID = "OVERDOSE"
	AttrMonitoring        AttributeID = "MONITORING"
)

// AllAttributeIDs lists the fixed column set in workbook order.
var AllAttributeIDs = []AttributeID{
	AttrClassification,
	AttrDosageNewborn,
	AttrDosageChild,
	AttrDoseAdjustRenal,
	AttrDoseAdjustHepatic,
	AttrContraindications,
	AttrSideEffects,
	AttrAdministration,
	AttrInteractions,
	AttrOverdose,
	AttrMonitoring,
}

// attributeLabels maps each column to its Vietnamese display label, as shown
// in answers and used when prompting the generative backend.
var attributeLabels = map[AttributeID]string{
	AttrClassification:    "Phân loại dược lý",
	AttrDosageNewborn:     "Liều thông thường trẻ sơ sinh",
	AttrDosageChild:       "Liều thông thường trẻ em",
	AttrDoseAdjustRenal:   "Hiệu chỉnh liều theo chức năng thận",
	AttrDoseAdjustHepatic: "Hiệu chỉnh liều theo chức năng gan",
	AttrContraindications: "Chống chỉ định",
	AttrSideEffects:       "Tác dụng không mong muốn",
	AttrAdministration:    "Cách dùng",
	AttrInteractions:      "Tương tác thuốc",
	AttrOverdose:          "Quá liều",
	AttrMonitoring:        "Theo dõi điều trị",
}

// Label returns the Vietnamese display label for the column, or the raw
// identifier when the column is unknown.
func (a AttributeID) Label() string {
	if label, ok := attributeLabels[a]; ok {
		return label
	}
	return string(a)
}

// IsDosage reports whether the column carries dosing information, including
// organ-function adjustments.
func (a AttributeID) IsDosage() bool {
	switch a {
	case AttrDosageNewborn, AttrDosageChild, AttrDoseAdjustRenal, AttrDoseAdjustHepatic:
		return true
	}
	return false
}

// IsContraindication reports whether the column belongs to the
// contraindication class that requires prominent safety framing.
func (a AttributeID) IsContraindication() bool {
	return a == AttrContraindications
}

// DrugRecord is one row of the knowledge base. Records are immutable once
// loaded; a refresh replaces the whole slice, never individual fields.
type DrugRecord struct {
	ID         uuid.UUID              `db:"id"`
	Name       string                 `db:"name"`
	Aliases    []string               `db:"aliases"`
	Attributes map[AttributeID]string `db:"-"`
	UpdatedAt  time.Time              `db:"updated_at"`
}

// Attribute returns the raw cell text for the column, empty when blank.
func (r *DrugRecord) Attribute(id AttributeID) string {
	if r.Attributes == nil {
		return ""
	}
	return r.Attributes[id]
}
