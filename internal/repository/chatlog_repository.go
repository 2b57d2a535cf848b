package repository

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

type ChatLogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewChatLogRepository(db *pgxpool.Pool, logger *zap.Logger) *ChatLogRepository {
	return &ChatLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ChatLogRepository) Create(ctx context.Context, log *models.ChatLog) error {
	query := squirrel.Insert("chat_logs").
		Columns("id", "user_id", "question", "answer", "drug_name", "category",
			"confidence", "failure_step", "generative", "created_at").
		Values(log.ID, log.UserID, log.Question, log.Answer, log.DrugName, log.Category,
			log.Confidence, log.FailureStep, log.Generative, log.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ChatLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.ChatLog, error) {
	query := squirrel.Select("id", "user_id", "question", "answer", "drug_name", "category",
		"confidence", "failure_step", "generative", "created_at").
		From("chat_logs").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.ChatLog
	for rows.Next() {
		var l models.ChatLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Question, &l.Answer, &l.DrugName, &l.Category,
			&l.Confidence, &l.FailureStep, &l.Generative, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
