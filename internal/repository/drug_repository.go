package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
)

// DrugRepository is the knowledge-base provider: it loads the tabular drug
// data as a complete snapshot. The pipeline never talks to it directly; the
// catalog service does, on startup and on each refresh tick.
type DrugRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewDrugRepository(db *pgxpool.Pool, logger *zap.Logger) *DrugRepository {
	return &DrugRepository{
		db:     db,
		logger: logger,
	}
}

// LoadRecords fetches every drug row with its attribute cells. Every record
// comes back with the full fixed attribute set; a column with no stored cell
// is an empty string, never a missing key.
func (r *DrugRepository) LoadRecords(ctx context.Context) ([]models.DrugRecord, error) {
	query := squirrel.Select("id", "name", "aliases", "updated_at").
		From("drugs").
		OrderBy("name ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load drugs: %w", err)
	}
	defer rows.Close()

	var records []models.DrugRecord
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var rec models.DrugRecord
		var aliases pgtype.FlatArray[string]
		if err := rows.Scan(&rec.ID, &rec.Name, &aliases, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Aliases = []string(aliases)
		rec.Attributes = make(map[models.AttributeID]string, len(models.AllAttributeIDs))
		for _, id := range models.AllAttributeIDs {
			rec.Attributes[id] = ""
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.fillAttributes(ctx, records, index); err != nil {
		return nil, err
	}

	r.logger.Info("Drug records loaded", zap.Int("count", len(records)))
	return records, nil
}

func (r *DrugRepository) fillAttributes(ctx context.Context, records []models.DrugRecord, index map[uuid.UUID]int) error {
	query := squirrel.Select("drug_id", "attribute", "content").
		From("drug_attributes").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to load drug attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var drugID uuid.UUID
		var attribute, content string
		if err := rows.Scan(&drugID, &attribute, &content); err != nil {
			return err
		}
		if i, ok := index[drugID]; ok {
			records[i].Attributes[models.AttributeID(attribute)] = content
		}
	}
	return rows.Err()
}

// ReplaceAll swaps the stored knowledge base wholesale inside one
// transaction, matching the snapshot-refresh model: readers of the previous
// snapshot are unaffected, the next LoadRecords sees only the new rows.
func (r *DrugRepository) ReplaceAll(ctx context.Context, records []models.DrugRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM drug_attributes"); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM drugs"); err != nil {
		return err
	}

	for i := range records {
		if err := r.insertRecord(ctx, tx, &records[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *DrugRepository) insertRecord(ctx context.Context, tx pgx.Tx, rec *models.DrugRecord) error {
	aliases := pgtype.FlatArray[string](rec.Aliases)
	insert := squirrel.Insert("drugs").
		Columns("id", "name", "aliases", "updated_at").
		Values(rec.ID, rec.Name, aliases, rec.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := insert.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert drug %s: %w", rec.Name, err)
	}

	for attr, content := range rec.Attributes {
		if content == "" {
			continue
		}
		cell := squirrel.Insert("drug_attributes").
			Columns("drug_id", "attribute", "content").
			Values(rec.ID, string(attr), content).
			PlaceholderFormat(squirrel.Dollar)
		sql, args, err := cell.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to insert attribute %s of %s: %w", attr, rec.Name, err)
		}
	}
	return nil
}
