package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokosmart/restock-backend/internal/domain"
)

const bareForest = `{
	"feature_names": ["stock", "sold"],
	"trees": [{
		"children_left": [1, -1, -1],
		"children_right": [2, -1, -1],
		"feature": [0, -1, -1],
		"threshold": [5, 0, 0],
		"value": [0, 10, 20]
	}]
}`

func TestParseBareForest(t *testing.T) {
	artifact, err := Parse([]byte(bareForest), "model.json")
	require.NoError(t, err)

	assert.Equal(t, 0, artifact.Version)
	assert.Equal(t, []string{"stock", "sold"}, artifact.Forest.FeatureNames())
}

func TestParseKeyedContainer(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "Model", key: "model"},
		{name: "RF Model", key: "rf_model"},
		{name: "Regressor", key: "regressor"},
		{name: "Estimator", key: "estimator"},
		{name: "Best Estimator", key: "best_estimator_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := `{"version": 3, "` + tt.key + `": ` + bareForest + `}`

			artifact, err := Parse([]byte(blob), "model.json")
			require.NoError(t, err)

			assert.Equal(t, 3, artifact.Version)
			require.NotNil(t, artifact.Forest)
			assert.Len(t, artifact.Forest.Trees, 1)
		})
	}
}

func TestParseUnknownKeysListsAvailable(t *testing.T) {
	blob := `{"version": 1, "scaler": {}, "pipeline_steps": {}}`

	_, err := Parse([]byte(blob), "model.json")

	var loadErr *domain.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "model.json", loadErr.Path)
	assert.Equal(t, []string{"pipeline_steps", "scaler", "version"}, loadErr.AvailableKeys,
		"keys listed sorted so the message is deterministic")
	assert.Contains(t, loadErr.Error(), "scaler")
}

func TestParseMalformedBlob(t *testing.T) {
	for _, blob := range []string{"not json", `{"model": "not a forest"}`, `{"trees": []}`} {
		_, err := Parse([]byte(blob), "model.json")
		var loadErr *domain.ModelLoadError
		assert.ErrorAs(t, err, &loadErr, "blob %q", blob)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	var loadErr *domain.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Reason, "cannot read artifact")
}

func TestLoadFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(bareForest), 0644))

	artifact, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, artifact.Path)
}

func TestItemCodeMap(t *testing.T) {
	codes, err := ParseItemCodes([]byte(`{"Rice ": 0, "Minyak Goreng": 1, "Beras": 2}`), "items.json")
	require.NoError(t, err)

	code, ok := codes.Lookup("  Rice ")
	assert.True(t, ok, "trimmed on load and on lookup")
	assert.Equal(t, 0, code)

	_, ok = codes.Lookup("Gula")
	assert.False(t, ok)

	assert.Equal(t, []string{"Beras", "Minyak Goreng", "Rice"}, codes.SortedNames())
}
