// Package pipeline implements the query-to-cell resolution core: free-text
// question in, safe bounded answer out. Every stage before the optional
// generative call is pure and deterministic over an immutable catalog
// snapshot, so the whole pipeline is safe to run concurrently without locks.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

// Pipeline stages, reported in Result.Step on failure.
const (
	StepKeywords = 1
	StepEntity   = 2
	StepCategory = 3
	StepCell     = 4
)

// FailureCause classifies a terminal failure. All causes are recoverable;
// Answer never returns an error.
type FailureCause string

const (
	CauseNone                 FailureCause = ""
	CauseNoEntityIdentified   FailureCause = "no_entity_identified"
	CauseNoCategoryIdentified FailureCause = "no_category_identified"
	CauseUnknownEntity        FailureCause = "unknown_entity"
	CauseEmptyField           FailureCause = "empty_field"
)

// Result is the pipeline's answer to one query.
type Result struct {
	Success        bool               `json:"success"`
	Message        string             `json:"message"`
	DrugName       string             `json:"drugName,omitempty"`
	Category       models.AttributeID `json:"category,omitempty"`
	CategoryLabel  string             `json:"categoryLabel,omitempty"`
	Confidence     int                `json:"confidence,omitempty"`
	Step           int                `json:"step,omitempty"`
	Cause          FailureCause       `json:"cause,omitempty"`
	UsedGenerative bool               `json:"usedGenerative,omitempty"`
	Narrowed       bool               `json:"narrowed,omitempty"`
}

// Scoring holds the confidence constants. The historical values were chosen
// empirically, so they are configuration, not law; the property tests pin
// behavior (ordering, caps), not exact scores.
type Scoring struct {
	ExactEntity     int
	ReverseEntity   int
	AliasEntity     int
	FuzzyEntity     int
	FuzzyThreshold  float64
	ExactCategory   int
	PartialCategory int
	AudienceBonus   int
	SeverityBonus   int
	ContraBonus     int
	ExactCap        int
	PartialCap      int
}

// DefaultScoring returns the tuned production constants.
func DefaultScoring() Scoring {
	return Scoring{
		ExactEntity:     100,
		ReverseEntity:   95,
		AliasEntity:     90,
		FuzzyEntity:     80,
		FuzzyThreshold:  0.7,
		ExactCategory:   100,
		PartialCategory: 70,
		AudienceBonus:   30,
		SeverityBonus:   25,
		ContraBonus:     40,
		ExactCap:        150,
		PartialCap:      120,
	}
}

const defaultGenerativeTimeout = 8 * time.Second

// Engine answers queries over one catalog snapshot. Engines are cheap;
// build a new one per refresh rather than mutating the catalog.
type Engine struct {
	catalog    *Catalog
	dict       *CategoryDictionary
	scoring    Scoring
	backend    GenerativeBackend
	genTimeout time.Duration
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGenerativeBackend plugs in the optional fluency layer.
func WithGenerativeBackend(backend GenerativeBackend) Option {
	return func(e *Engine) { e.backend = backend }
}

// WithGenerativeTimeout bounds each generative call.
func WithGenerativeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.genTimeout = d
		}
	}
}

// WithScoring overrides the confidence constants.
func WithScoring(s Scoring) Option {
	return func(e *Engine) { e.scoring = s }
}

// WithDictionary overrides the category trigger table.
func WithDictionary(d *CategoryDictionary) Option {
	return func(e *Engine) { e.dict = d }
}

// WithLogger sets the logger; the default is a no-op.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine builds an engine over the snapshot.
func NewEngine(catalog *Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:    catalog,
		dict:       DefaultDictionary(),
		scoring:    DefaultScoring(),
		genTimeout: defaultGenerativeTimeout,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer resolves one query end to end. Failures short-circuit with a typed
// result as soon as a stage's precondition is unmet; the only blocking step
// is the bounded generative call, and its failure silently falls back to the
// deterministic answer.
func (e *Engine) Answer(ctx context.Context, query string) Result {
	query = strings.TrimSpace(query)
	kw := e.extractKeywords(query)
	if len(kw.Drugs) == 0 {
		return Result{
			Success: false,
			Step:    StepKeywords,
			Cause:   CauseNoEntityIdentified,
			Message: "Mình chưa nhận ra tên thuốc trong câu hỏi. Bạn ghi rõ tên thuốc giúp mình nhé, ví dụ: \"liều paracetamol cho trẻ em\".",
		}
	}

	entities := e.resolveEntities(kw.Drugs)
	if len(entities) == 0 {
		return Result{
			Success: false,
			Step:    StepEntity,
			Cause:   CauseUnknownEntity,
			Message: fmt.Sprintf("Thuốc \"%s\" hiện chưa có trong cơ sở dữ liệu. Bạn kiểm tra lại tên thuốc hoặc thử tên hoạt chất nhé.", kw.Drugs[0]),
		}
	}

	qc := ExtractContext(query)

	if len(kw.Categories) == 0 {
		return Result{
			Success: false,
			Step:    StepCategory,
			Cause:   CauseNoCategoryIdentified,
			Message: "Bạn muốn hỏi về nội dung nào của thuốc? Ví dụ: liều dùng, chống chỉ định, tác dụng phụ, cách dùng, tương tác thuốc.",
		}
	}
	categories := e.resolveCategories(kw.Categories, fold(query), qc)
	if len(categories) == 0 {
		return Result{
			Success: false,
			Step:    StepCategory,
			Cause:   CauseNoCategoryIdentified,
			Message: "Chưa có dữ liệu cho chủ đề bạn hỏi. Bạn thử hỏi về liều dùng, chống chỉ định, tác dụng phụ hoặc cách dùng nhé.",
		}
	}

	cell := extractCell(entities[0], categories[0])
	if cell.Empty() {
		return Result{
			Success:       false,
			Step:          StepCell,
			Cause:         CauseEmptyField,
			DrugName:      cell.DrugName,
			Category:      cell.Attribute,
			CategoryLabel: cell.Attribute.Label(),
			Message: fmt.Sprintf("Mục \"%s\" của thuốc %s hiện chưa có dữ liệu trong cơ sở tra cứu.",
				cell.Attribute.Label(), cell.DrugName),
		}
	}

	ref := refineContent(cell.RawText, qc)
	return e.assemble(ctx, query, cell, ref, qc)
}
