package history

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tokosmart/restock-backend/internal/domain"
	"github.com/tokosmart/restock-backend/internal/model"
	"github.com/tokosmart/restock-backend/internal/pipeline"
)

// Name identifies this pipeline in run records and API responses.
const Name = "history"

// Pipeline scores the latest record of every item with the restock model.
// The model predicts the restock quantity directly; no further arithmetic
// is applied on top of its output.
type Pipeline struct {
	predictor *pipeline.Predictor
}

func New(m model.Regressor) *Pipeline {
	return &Pipeline{predictor: pipeline.NewPredictor(m)}
}

// Run builds features from the validated history, takes the most recent
// record per item and attaches the model's recommendation.
func (p *Pipeline) Run(ctx context.Context, records []domain.SalesRecord) (*domain.RecommendationSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, _ := BuildFeatures(records)

	// Latest record per item: the last row of each item group in the
	// sort order established by BuildFeatures. Groups are already
	// ordered by item name, which fixes the output order.
	var latest []FeatureRow
	for i := range rows {
		if i+1 == len(rows) || rows[i+1].Record.ItemName != rows[i].Record.ItemName {
			latest = append(latest, rows[i])
		}
	}

	matrix := make([][]float64, 0, len(latest))
	kept := make([]FeatureRow, 0, len(latest))
	for _, row := range latest {
		v, ok := row.Vector()
		if !ok {
			log.Warn().
				Str("item", row.Record.ItemName).
				Str("date", row.Record.Date).
				Msg("dropping item: model-required features missing after coercion")
			continue
		}
		matrix = append(matrix, v)
		kept = append(kept, row)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preds, err := p.predictor.Predict(FeatureSchema, matrix)
	if err != nil {
		return nil, err
	}

	items := make([]domain.RestockRecommendation, len(kept))
	for i, row := range kept {
		items[i] = domain.RestockRecommendation{
			Category:     row.Record.Category,
			ItemName:     row.Record.ItemName,
			Unit:         row.Record.Unit,
			CurrentStock: asQty(row.Record.ClosingStock),
			WeeklyDemand: asQty(row.Record.QtySold),
			Restock:      preds[i],
		}
	}

	return &domain.RecommendationSet{
		Pipeline:    Name,
		GeneratedAt: time.Now(),
		Items:       items,
	}, nil
}

func asQty(v float64) int {
	if domain.IsMissing(v) || v < 0 {
		return 0
	}
	return int(v)
}
