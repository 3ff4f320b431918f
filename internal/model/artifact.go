package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tokosmart/restock-backend/internal/domain"
)

// containerKeys are the conventional keys a training export may nest the
// estimator under when the blob is a keyed container rather than a bare
// model.
var containerKeys = []string{"model", "rf_model", "regressor", "estimator", "best_estimator_"}

// Artifact is a trained model blob resolved once at load time. After Load
// returns, the contained Forest is immutable and safe to share.
type Artifact struct {
	Path    string
	Version int
	Forest  *Forest
}

// Load reads and resolves a model artifact from disk.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ModelLoadError{Path: path, Reason: fmt.Sprintf("cannot read artifact: %v", err)}
	}
	return Parse(data, path)
}

// Parse resolves an artifact from raw bytes. The blob is either a bare
// serialized forest or a container holding one under a conventional key;
// the variant is decided here, never re-probed at inference time.
func Parse(data []byte, path string) (*Artifact, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.ModelLoadError{Path: path, Reason: fmt.Sprintf("malformed artifact: %v", err)}
	}

	version := 0
	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return nil, &domain.ModelLoadError{Path: path, Reason: fmt.Sprintf("invalid version field: %v", err)}
		}
	}

	modelData := data
	if _, bare := raw["trees"]; !bare {
		resolved := false
		for _, key := range containerKeys {
			if payload, ok := raw[key]; ok {
				modelData = payload
				resolved = true
				break
			}
		}
		if !resolved {
			keys := make([]string, 0, len(raw))
			for k := range raw {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return nil, &domain.ModelLoadError{
				Path:          path,
				Reason:        "no estimator found under any conventional key",
				AvailableKeys: keys,
			}
		}
	}

	var forest Forest
	if err := json.Unmarshal(modelData, &forest); err != nil {
		return nil, &domain.ModelLoadError{Path: path, Reason: fmt.Sprintf("malformed estimator: %v", err)}
	}
	if err := forest.validate(); err != nil {
		return nil, &domain.ModelLoadError{Path: path, Reason: err.Error()}
	}

	return &Artifact{Path: path, Version: version, Forest: &forest}, nil
}
