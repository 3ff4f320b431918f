package projection

import (
	"context"
	"sort"
	"time"

	"github.com/tokosmart/restock-backend/internal/domain"
	"github.com/tokosmart/restock-backend/internal/model"
	"github.com/tokosmart/restock-backend/internal/pipeline"
)

// Name identifies this pipeline in run records and API responses.
const Name = "projection"

// DefaultHorizonDays is the forward window demand is projected over.
const DefaultHorizonDays = 7

// Pipeline projects daily sales for every known item over the horizon and
// derives restock need as projected demand minus current stock. Items not
// present in the identity map have no learned code and are not scored.
type Pipeline struct {
	predictor *pipeline.Predictor
	codes     model.ItemCodeMap
	horizon   int

	// Now is overridable in tests; the grid starts the day after it.
	Now func() time.Time
}

func New(m model.Regressor, codes model.ItemCodeMap, horizon int) *Pipeline {
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}
	return &Pipeline{
		predictor: pipeline.NewPredictor(m),
		codes:     codes,
		horizon:   horizon,
		Now:       time.Now,
	}
}

// Run predicts per-day demand for each known item, sums it over the
// horizon and joins the result against the uploaded current stock.
func (p *Pipeline) Run(ctx context.Context, levels []domain.StockLevel) (*domain.RecommendationSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Last chronological record per item wins; names arrive trimmed from
	// validation so the join cannot miss on whitespace.
	stock := make(map[string]float64, len(levels))
	for _, lvl := range levels {
		stock[lvl.ItemName] = lvl.ClosingStock
	}

	grid := BuildFutureGrid(p.codes, p.Now(), p.horizon)
	matrix := make([][]float64, len(grid))
	for i, row := range grid {
		matrix[i] = row.Vector()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	daily, err := p.predictor.Predict(FeatureSchema, matrix)
	if err != nil {
		return nil, err
	}

	demand := make(map[string]int, len(p.codes))
	for i, row := range grid {
		demand[row.ItemName] += daily[i]
	}

	items := make([]domain.RestockRecommendation, 0, len(demand))
	for _, name := range p.codes.SortedNames() {
		current := asStock(stock[name])
		restock := demand[name] - current
		if restock < 0 {
			restock = 0
		}
		items = append(items, domain.RestockRecommendation{
			ItemName:     name,
			CurrentStock: current,
			WeeklyDemand: demand[name],
			Restock:      restock,
		})
	}

	// Most urgent restock first; stable keeps the sorted-name order on ties.
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].Restock > items[b].Restock
	})

	return &domain.RecommendationSet{
		Pipeline:    Name,
		GeneratedAt: time.Now(),
		Items:       items,
	}, nil
}

// asStock converts an uploaded stock value, defaulting missing to zero.
func asStock(v float64) int {
	if domain.IsMissing(v) {
		return 0
	}
	return int(v)
}
