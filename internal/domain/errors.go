package domain

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns absent from an uploaded dataset.
// It is fatal for that dataset: no rows are processed.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ParseError reports a value that could not be coerced. It is recovered
// locally by substituting the missing marker; it is surfaced only when a
// caller asks why a row was dropped.
type ParseError struct {
	Column string
	Value  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q as %s", e.Value, e.Column)
}

// ModelLoadError reports a missing or malformed model artifact. Fatal: the
// caller must not offer prediction.
type ModelLoadError struct {
	Path          string
	Reason        string
	AvailableKeys []string
}

func (e *ModelLoadError) Error() string {
	if len(e.AvailableKeys) > 0 {
		return fmt.Sprintf("model artifact %s: %s (available keys: %s)",
			e.Path, e.Reason, strings.Join(e.AvailableKeys, ", "))
	}
	return fmt.Sprintf("model artifact %s: %s", e.Path, e.Reason)
}

// ModelInferenceError reports a feature matrix incompatible with the model
// contract. Fatal for the run: no partial recommendations are returned.
type ModelInferenceError struct {
	Reason string
}

func (e *ModelInferenceError) Error() string {
	return "model inference failed: " + e.Reason
}
