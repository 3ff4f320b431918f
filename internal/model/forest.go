package model

import (
	"fmt"

	"github.com/tokosmart/restock-backend/internal/domain"
)

// Regressor is the read-only inference contract the pipelines depend on.
// Implementations must be safe for concurrent use once loaded.
type Regressor interface {
	// FeatureNames returns the ordered feature schema the model was
	// trained against.
	FeatureNames() []string

	// Predict scores one row per input slice. Every row must have
	// len(FeatureNames()) values in schema order.
	Predict(rows [][]float64) ([]float64, error)
}

// Tree is a single regression tree in scikit-learn's array layout:
// parallel arrays indexed by node id, Feature < 0 marking a leaf.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

func (t *Tree) validate() error {
	n := len(t.Feature)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenLeft) != n || len(t.ChildrenRight) != n ||
		len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree node arrays have inconsistent lengths")
	}
	for i := 0; i < n; i++ {
		if t.Feature[i] < 0 {
			continue
		}
		if t.ChildrenLeft[i] < 0 || t.ChildrenLeft[i] >= n ||
			t.ChildrenRight[i] < 0 || t.ChildrenRight[i] >= n {
			return fmt.Errorf("tree node %d has out-of-range children", i)
		}
	}
	return nil
}

// predict walks the tree for one feature row. Split rule is the standard
// left-on-(x <= threshold); a missing (NaN) feature value follows the
// right branch, matching how the comparison evaluates.
func (t *Tree) predict(x []float64) float64 {
	node := 0
	for t.Feature[node] >= 0 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// Forest is a random-forest regressor: the mean of its trees' outputs.
type Forest struct {
	Features []string `json:"feature_names"`
	Trees    []Tree   `json:"trees"`
}

func (f *Forest) validate() error {
	if len(f.Features) == 0 {
		return fmt.Errorf("forest declares no feature names")
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
		for _, feat := range f.Trees[i].Feature {
			if feat >= len(f.Features) {
				return fmt.Errorf("tree %d references feature %d beyond schema width %d",
					i, feat, len(f.Features))
			}
		}
	}
	return nil
}

// FeatureNames returns the ordered feature schema.
func (f *Forest) FeatureNames() []string {
	return f.Features
}

// Predict scores each row as the mean over all trees.
func (f *Forest) Predict(rows [][]float64) ([]float64, error) {
	width := len(f.Features)
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, &domain.ModelInferenceError{
				Reason: fmt.Sprintf("row %d has %d features, model expects %d", i, len(row), width),
			}
		}
		sum := 0.0
		for t := range f.Trees {
			sum += f.Trees[t].predict(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}
