package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/pipeline"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/config"
)

var ErrCatalogNotReady = fmt.Errorf("drug catalog is not loaded yet")

// ChatLogStore persists chat exchanges.
type ChatLogStore interface {
	Create(ctx context.Context, log *models.ChatLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ChatLog, error)
}

// ChatService answers drug questions through the resolution pipeline and
// records every exchange for the user's history.
type ChatService struct {
	catalog  *CatalogService
	chatRepo ChatLogStore
	backend  pipeline.GenerativeBackend
	scoring  pipeline.Scoring
	cfg      *config.PipelineConfig
	logger   *zap.Logger
}

// NewChatService wires the pipeline configuration into the engine options.
// backend may be nil; answers then stay fully deterministic.
func NewChatService(
	catalog *CatalogService,
	chatRepo ChatLogStore,
	backend pipeline.GenerativeBackend,
	cfg *config.PipelineConfig,
	logger *zap.Logger,
) *ChatService {
	scoring := pipeline.DefaultScoring()
	if cfg.FuzzyThreshold > 0 {
		scoring.FuzzyThreshold = cfg.FuzzyThreshold
	}
	return &ChatService{
		catalog:  catalog,
		chatRepo: chatRepo,
		backend:  backend,
		scoring:  scoring,
		cfg:      cfg,
		logger:   logger,
	}
}

// Ask resolves one question against the current catalog snapshot. The log
// write is best-effort: a storage failure is logged but the answer still
// reaches the user.
func (s *ChatService) Ask(ctx context.Context, userID uuid.UUID, question string) (pipeline.Result, error) {
	snapshot := s.catalog.Snapshot()
	if snapshot == nil {
		return pipeline.Result{}, ErrCatalogNotReady
	}

	opts := []pipeline.Option{
		pipeline.WithScoring(s.scoring),
		pipeline.WithGenerativeTimeout(s.cfg.GenerativeTimeout),
		pipeline.WithLogger(s.logger),
	}
	if s.backend != nil {
		opts = append(opts, pipeline.WithGenerativeBackend(s.backend))
	}
	engine := pipeline.NewEngine(snapshot, opts...)

	result := engine.Answer(ctx, question)

	log := &models.ChatLog{
		ID:          uuid.New(),
		UserID:      userID,
		Question:    sanitizeUTF8(question),
		Answer:      sanitizeUTF8(result.Message),
		DrugName:    result.DrugName,
		Category:    string(result.Category),
		Confidence:  result.Confidence,
		FailureStep: result.Step,
		Generative:  result.UsedGenerative,
		CreatedAt:   time.Now(),
	}
	if err := s.chatRepo.Create(ctx, log); err != nil {
		s.logger.Error("Failed to persist chat log",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	return result, nil
}

// History returns the user's past exchanges, newest first.
func (s *ChatService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ChatLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.chatRepo.ListByUser(ctx, userID, limit, offset)
}

// DrugNames lists the catalog's drug names for client-side autocomplete.
func (s *ChatService) DrugNames() ([]string, error) {
	snapshot := s.catalog.Snapshot()
	if snapshot == nil {
		return nil, ErrCatalogNotReady
	}
	return snapshot.Names(), nil
}
