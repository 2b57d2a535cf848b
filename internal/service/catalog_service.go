package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/pipeline"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/config"
)

// RecordLoader is the knowledge-base provider interface: it returns the full
// set of drug records, fallibly.
type RecordLoader interface {
	LoadRecords(ctx context.Context) ([]models.DrugRecord, error)
}

// CatalogService owns the active catalog snapshot. Refreshes build a complete
// new catalog and swap it atomically; in-flight queries keep reading the
// snapshot they started with, and a failed refresh keeps the previous one.
type CatalogService struct {
	loader   RecordLoader
	interval time.Duration
	logger   *zap.Logger
	snapshot atomic.Pointer[pipeline.Catalog]
}

func NewCatalogService(loader RecordLoader, cfg *config.CatalogConfig, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		loader:   loader,
		interval: cfg.RefreshInterval,
		logger:   logger,
	}
}

// Refresh loads the records and swaps in a freshly built catalog.
func (s *CatalogService) Refresh(ctx context.Context) error {
	records, err := s.loader.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}
	catalog := pipeline.NewCatalog(records)
	s.snapshot.Store(catalog)
	s.logger.Info("Catalog snapshot refreshed", zap.Int("drugs", catalog.Len()))
	return nil
}

// Snapshot returns the active catalog, or nil before the first load.
func (s *CatalogService) Snapshot() *pipeline.Catalog {
	return s.snapshot.Load()
}

// Run refreshes the catalog periodically until the context is cancelled.
// Refresh errors are logged and the previous snapshot stays active.
func (s *CatalogService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error("Catalog refresh failed, keeping previous snapshot", zap.Error(err))
			}
		}
	}
}
