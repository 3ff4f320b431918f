package pipeline

import (
	"fmt"
	"math"

	"github.com/tokosmart/restock-backend/internal/domain"
	"github.com/tokosmart/restock-backend/internal/model"
)

// Predictor runs inference over a built feature matrix and post-processes
// the raw regression outputs into integer quantities.
type Predictor struct {
	model model.Regressor
}

func NewPredictor(m model.Regressor) *Predictor {
	return &Predictor{model: m}
}

// Predict verifies the builder's declared schema against the model's
// contract before inference. Column order is checked name by name: a naive
// call with mis-ordered columns would produce silently wrong predictions,
// so any mismatch fails the whole run instead.
func (p *Predictor) Predict(schema []string, rows [][]float64) ([]int, error) {
	expected := p.model.FeatureNames()
	if len(schema) != len(expected) {
		return nil, &domain.ModelInferenceError{
			Reason: fmt.Sprintf("feature matrix has %d columns, model expects %d", len(schema), len(expected)),
		}
	}
	for i := range schema {
		if schema[i] != expected[i] {
			return nil, &domain.ModelInferenceError{
				Reason: fmt.Sprintf("feature %d is %q, model expects %q", i, schema[i], expected[i]),
			}
		}
	}

	raw, err := p.model.Predict(rows)
	if err != nil {
		return nil, err
	}

	// Quantities are whole units and never negative.
	out := make([]int, len(raw))
	for i, v := range raw {
		q := int(math.Round(v))
		if q < 0 {
			q = 0
		}
		out[i] = q
	}
	return out, nil
}
