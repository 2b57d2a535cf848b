package repository

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

type PasswordResetRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPasswordResetRepository(db *pgxpool.Pool, logger *zap.Logger) *PasswordResetRepository {
	return &PasswordResetRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	query := squirrel.Insert("password_resets").
		Columns("id", "user_id", "code", "expires_at", "used", "created_at").
		Values(reset.ID, reset.UserID, reset.Code, reset.ExpiresAt, reset.Used, reset.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// GetActive returns the newest unused, unexpired reset for the user and code.
func (r *PasswordResetRepository) GetActive(ctx context.Context, userID uuid.UUID, code string) (*models.PasswordReset, error) {
	query := squirrel.Select("id", "user_id", "code", "expires_at", "used", "created_at").
		From("password_resets").
		Where(squirrel.Eq{"user_id": userID, "code": code, "used": false}).
		Where(squirrel.Gt{"expires_at": time.Now()}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var reset models.PasswordReset
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&reset.ID, &reset.UserID, &reset.Code, &reset.ExpiresAt, &reset.Used, &reset.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Update("password_resets").
		Set("used", true).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
