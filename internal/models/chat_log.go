package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatLog is one answered (or failed) lookup, kept per user for history and
// diagnostics. FailureStep is 0 on success, otherwise the pipeline stage that
// terminated the query.
type ChatLog struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Question    string    `db:"question"`
	Answer      string    `db:"answer"`
	DrugName    string    `db:"drug_name"`
	Category    string    `db:"category"`
	Confidence  int       `db:"confidence"`
	FailureStep int       `db:"failure_step"`
	Generative  bool      `db:"generative"`
	CreatedAt   time.Time `db:"created_at"`
}
