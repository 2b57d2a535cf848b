package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/models"
	"github.com/Nikkie2411/pedmedvn-sub000/internal/repository"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/config"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/logger"
	"github.com/Nikkie2411/pedmedvn-sub000/pkg/postgres"
)

// seedDrug is one entry of the drugs JSON workbook. Attribute keys must match
// the fixed attribute identifiers; unknown keys are rejected so a typo in the
// workbook cannot silently drop a column.
type seedDrug struct {
	Name       string            `json:"name"`
	Aliases    []string          `json:"aliases"`
	Attributes map[string]string `json:"attributes"`
}

func main() {
	drugsPath := flag.String("drugs", "cmd/seed/drugs.json", "path to the drugs JSON workbook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	appLogger.Info("Ensuring database schema")
	if err := ensureSchema(ctx, db); err != nil {
		appLogger.Fatal("Failed to create schema", zap.Error(err))
	}

	records, err := loadDrugs(*drugsPath)
	if err != nil {
		appLogger.Fatal("Failed to load drugs workbook", zap.Error(err))
	}

	drugRepo := repository.NewDrugRepository(db, appLogger)
	if err := drugRepo.ReplaceAll(ctx, records); err != nil {
		appLogger.Fatal("Failed to seed drugs", zap.Error(err))
	}

	appLogger.Info("Database seeding completed", zap.Int("drugs", len(records)))
}

func loadDrugs(path string) ([]models.DrugRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}

	var seeds []seedDrug
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse workbook: %w", err)
	}

	known := make(map[models.AttributeID]bool, len(models.AllAttributeIDs))
	for _, id := range models.AllAttributeIDs {
		known[id] = true
	}

	now := time.Now()
	records := make([]models.DrugRecord, 0, len(seeds))
	for i, seed := range seeds {
		name := strings.TrimSpace(seed.Name)
		if name == "" {
			return nil, fmt.Errorf("entry %d has no name", i)
		}

		rec := models.DrugRecord{
			ID:         uuid.New(),
			Name:       name,
			Aliases:    seed.Aliases,
			Attributes: make(map[models.AttributeID]string, len(models.AllAttributeIDs)),
			UpdatedAt:  now,
		}
		for _, id := range models.AllAttributeIDs {
			rec.Attributes[id] = ""
		}
		for key, value := range seed.Attributes {
			id := models.AttributeID(key)
			if !known[id] {
				return nil, fmt.Errorf("entry %q has unknown attribute %q", name, key)
			}
			rec.Attributes[id] = strings.TrimSpace(value)
		}
		records = append(records, rec)
	}

	return records, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		approved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		device_name TEXT NOT NULL,
		last_seen_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS password_resets (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		code TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		used BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drugs (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		aliases TEXT[] NOT NULL DEFAULT '{}',
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drug_attributes (
		drug_id UUID NOT NULL REFERENCES drugs(id) ON DELETE CASCADE,
		attribute TEXT NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (drug_id, attribute)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_logs (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		drug_name TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		confidence INT NOT NULL DEFAULT 0,
		failure_step INT NOT NULL DEFAULT 0,
		generative BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_logs_user ON chat_logs (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_user ON devices (user_id, last_seen_at)`,
}

func ensureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
