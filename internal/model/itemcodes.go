package model

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tokosmart/restock-backend/internal/domain"
)

// ItemCodeMap maps a trimmed item name to the integer code the forecast
// model was trained against. An item absent from the map has no learned
// identity and cannot be scored by the projection pipeline.
type ItemCodeMap map[string]int

// LoadItemCodes reads the serialized name->code mapping. Names are trimmed
// on load so uploads with stray whitespace still join.
func LoadItemCodes(path string) (ItemCodeMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ModelLoadError{Path: path, Reason: fmt.Sprintf("cannot read item code map: %v", err)}
	}
	return ParseItemCodes(data, path)
}

// ParseItemCodes resolves the mapping from raw bytes, for blobs fetched
// from object storage.
func ParseItemCodes(data []byte, path string) (ItemCodeMap, error) {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.ModelLoadError{Path: path, Reason: fmt.Sprintf("malformed item code map: %v", err)}
	}

	m := make(ItemCodeMap, len(raw))
	for name, code := range raw {
		m[strings.TrimSpace(name)] = code
	}
	return m, nil
}

// Lookup resolves a (possibly untrimmed) item name to its code.
func (m ItemCodeMap) Lookup(name string) (int, bool) {
	code, ok := m[strings.TrimSpace(name)]
	return code, ok
}

// SortedNames returns the known item names in deterministic order.
func (m ItemCodeMap) SortedNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
