package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tokosmart/restock-backend/internal/domain"
)

// RecommendationRepository stores finished pipeline runs and their per-item
// rows. Uploaded datasets are never written here.
type RecommendationRepository struct {
	db *DB
}

func NewRecommendationRepository(db *DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// EnsureSchema creates the result tables when they do not exist yet.
func (r *RecommendationRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS recommendation_runs (
			id UUID PRIMARY KEY,
			pipeline TEXT NOT NULL,
			item_count INT NOT NULL,
			total_qty INT NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS recommendation_items (
			run_id UUID NOT NULL REFERENCES recommendation_runs(id) ON DELETE CASCADE,
			position INT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			item_name TEXT NOT NULL,
			unit TEXT NOT NULL DEFAULT '',
			current_stock INT NOT NULL,
			weekly_demand INT NOT NULL,
			restock INT NOT NULL,
			PRIMARY KEY (run_id, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun inserts the run header and its rows in one transaction. Position
// preserves the pipeline's output ordering.
func (r *RecommendationRepository) SaveRun(ctx context.Context, run domain.RecommendationRun, items []domain.RestockRecommendation) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommendation_runs (id, pipeline, item_count, total_qty, generated_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			run.ID, run.Pipeline, run.ItemCount, run.TotalQty, run.GeneratedAt,
		); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO recommendation_items
			 (run_id, position, category, item_name, unit, current_stock, weekly_demand, restock)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
		if err != nil {
			return fmt.Errorf("failed to prepare item insert: %w", err)
		}
		defer stmt.Close()

		for i, item := range items {
			if _, err := stmt.ExecContext(ctx,
				run.ID, i, item.Category, item.ItemName, item.Unit,
				item.CurrentStock, item.WeeklyDemand, item.Restock,
			); err != nil {
				return fmt.Errorf("failed to insert item %s: %w", item.ItemName, err)
			}
		}
		return nil
	})
}

// ListRuns returns run summaries, newest first.
func (r *RecommendationRepository) ListRuns(ctx context.Context, limit int) ([]domain.RecommendationRun, error) {
	runs := make([]domain.RecommendationRun, 0, limit)
	err := r.db.SelectContext(ctx, &runs,
		`SELECT id, pipeline, item_count, total_qty, generated_at
		 FROM recommendation_runs
		 ORDER BY generated_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRunItems returns one run's rows in their stored order.
func (r *RecommendationRepository) GetRunItems(ctx context.Context, runID string) ([]domain.RestockRecommendation, error) {
	items := make([]domain.RestockRecommendation, 0)
	err := r.db.SelectContext(ctx, &items,
		`SELECT category, item_name, unit, current_stock, weekly_demand, restock
		 FROM recommendation_items
		 WHERE run_id = $1
		 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run items: %w", err)
	}
	return items, nil
}
