package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/config"
)

type stubChatLogStore struct {
	created []*models.ChatLog
}

func (s *stubChatLogStore) Create(_ context.Context, log *models.ChatLog) error {
	s.created = append(s.created, log)
	return nil
}

func (s *stubChatLogStore) ListByUser(context.Context, uuid.UUID, int, int) ([]*models.ChatLog, error) {
	return nil, nil
}

func newTestChatService(store ChatLogStore) (*ChatService, *CatalogService) {
	loader := &stubLoader{records: []models.DrugRecord{drugNamed("Paracetamol")}}
	catalog := newTestCatalogService(loader)
	cfg := &config.PipelineConfig{GenerativeTimeout: time.Second, FuzzyThreshold: 0.7}
	return NewChatService(catalog, store, nil, cfg, zap.NewNop()), catalog
}

func TestChatService_AskBeforeCatalogLoads(t *testing.T) {
	store := &stubChatLogStore{}
	svc, _ := newTestChatService(store)

	_, err := svc.Ask(context.Background(), uuid.New(), "liều paracetamol")
	require.ErrorIs(t, err, ErrCatalogNotReady)
	assert.Empty(t, store.created)
}

func TestChatService_AskPersistsTimestampedLog(t *testing.T) {
	store := &stubChatLogStore{}
	svc, catalog := newTestChatService(store)
	require.NoError(t, catalog.Refresh(context.Background()))

	userID := uuid.New()
	before := time.Now()
	result, err := svc.Ask(context.Background(), userID, "Paracetamol có tác dụng phụ gì?")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Message)

	require.Len(t, store.created, 1)
	log := store.created[0]
	assert.Equal(t, userID, log.UserID)
	assert.Equal(t, "Paracetamol có tác dụng phụ gì?", log.Question)
	assert.Equal(t, result.Message, log.Answer)
	assert.False(t, log.CreatedAt.IsZero())
	assert.False(t, log.CreatedAt.Before(before))
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "liều dùng", sanitizeUTF8("liều dùng"))
	assert.Equal(t, "abc", sanitizeUTF8("ab\xffc"))
	assert.Equal(t, "", sanitizeUTF8("\xff\xfe"))
}
