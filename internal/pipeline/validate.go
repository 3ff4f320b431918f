package pipeline

import (
	"strconv"
	"strings"

	"github.com/tokosmart/restock-backend/internal/dataset"
	"github.com/tokosmart/restock-backend/internal/domain"
)

// historyColumns are required for the historical-feature pipeline.
var historyColumns = []string{
	ColWeek, ColDate, ColCategory, ColItemName,
	ColUnit, ColOpeningStock, ColQtySold, ColClosingStock,
}

// currentStockColumns are the minimal contract for the projection pipeline.
var currentStockColumns = []string{ColItemName, ColClosingStock}

// checkSchema collects every missing required column so the caller sees the
// full list at once.
func checkSchema(t *dataset.Table, required []string) error {
	var missing []string
	for _, col := range required {
		if t.ColumnIndex(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &domain.SchemaError{Missing: missing}
	}
	return nil
}

// coerceNumber parses a cell as a number, substituting the missing marker
// for anything unparsable. Thousands separators are tolerated.
func coerceNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Missing()
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Missing()
	}
	return f
}

// ValidateHistory checks the full history schema and coerces the numeric
// columns into SalesRecords. Unrelated columns are left untouched; date
// parsing is deferred to the feature builder.
func ValidateHistory(t *dataset.Table) ([]domain.SalesRecord, error) {
	if err := checkSchema(t, historyColumns); err != nil {
		return nil, err
	}

	idxWeek := t.ColumnIndex(ColWeek)
	idxDate := t.ColumnIndex(ColDate)
	idxCategory := t.ColumnIndex(ColCategory)
	idxName := t.ColumnIndex(ColItemName)
	idxUnit := t.ColumnIndex(ColUnit)
	idxOpening := t.ColumnIndex(ColOpeningStock)
	idxSold := t.ColumnIndex(ColQtySold)
	idxClosing := t.ColumnIndex(ColClosingStock)

	records := make([]domain.SalesRecord, 0, len(t.Rows))
	for i := range t.Rows {
		records = append(records, domain.SalesRecord{
			Week:         coerceNumber(t.Cell(i, idxWeek)),
			Date:         t.Cell(i, idxDate),
			Category:     t.Cell(i, idxCategory),
			ItemName:     t.Cell(i, idxName),
			Unit:         t.Cell(i, idxUnit),
			OpeningStock: coerceNumber(t.Cell(i, idxOpening)),
			QtySold:      coerceNumber(t.Cell(i, idxSold)),
			ClosingStock: coerceNumber(t.Cell(i, idxClosing)),
		})
	}

	return records, nil
}

// ValidateCurrentStock checks the minimal projection-pipeline schema and
// returns per-row stock levels in upload order. Item names are trimmed so
// the later join against the identity map cannot silently miss.
func ValidateCurrentStock(t *dataset.Table) ([]domain.StockLevel, error) {
	if err := checkSchema(t, currentStockColumns); err != nil {
		return nil, err
	}

	idxName := t.ColumnIndex(ColItemName)
	idxClosing := t.ColumnIndex(ColClosingStock)

	levels := make([]domain.StockLevel, 0, len(t.Rows))
	for i := range t.Rows {
		levels = append(levels, domain.StockLevel{
			ItemName:     strings.TrimSpace(t.Cell(i, idxName)),
			ClosingStock: coerceNumber(t.Cell(i, idxClosing)),
		})
	}

	return levels, nil
}
