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

type DeviceRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDeviceRepository(db *pgxpool.Pool, logger *zap.Logger) *DeviceRepository {
	return &DeviceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	query := squirrel.Insert("devices").
		Columns("id", "user_id", "device_name", "last_seen_at", "created_at").
		Values(device.ID, device.UserID, device.DeviceName, device.LastSeenAt, device.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

// ListByUser returns the user's devices, oldest last seen first, so the
// caller can evict the head when the device limit is exceeded.
func (r *DeviceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Device, error) {
	query := squirrel.Select("id", "user_id", "device_name", "last_seen_at", "created_at").
		From("devices").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("last_seen_at ASC").
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

	var devices []*models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.DeviceName, &d.LastSeenAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		devices = append(devices, &d)
	}
	return devices, rows.Err()
}

func (r *DeviceRepository) Touch(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Update("devices").
		Set("last_seen_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DeviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Delete("devices").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
