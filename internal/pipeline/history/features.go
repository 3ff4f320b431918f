package history

import (
	"sort"
	"time"

	"github.com/tokosmart/restock-backend/internal/domain"
	"github.com/tokosmart/restock-backend/internal/pipeline"
)

// FeatureSchema is the declared inference contract of the restock model,
// in training order. The encoded columns keep the names the model was
// exported with.
var FeatureSchema = []string{
	pipeline.ColWeek,
	"KATEGORI_ENCODED",
	"NAMA_BARANG_ENCODED",
	pipeline.ColOpeningStock,
	pipeline.ColQtySold,
	pipeline.ColClosingStock,
	"BULAN",
	"TAHUN",
	"HARI_DALAM_BULAN",
}

// FeatureRow is one SalesRecord with its derived features. Immutable once
// built; consumed by the predictor and discarded.
type FeatureRow struct {
	Record domain.SalesRecord

	Year  float64
	Month float64
	Day   float64

	CategoryCode float64
	ItemCode     float64

	// Lag-1 features per item. Missing for the first dated record of an
	// item and for rows without a parseable date.
	PrevQtySold      float64
	PrevClosingStock float64

	// RestockLabel is the training target (next period's sales minus
	// closing stock, floored at zero). Never fed to the model at
	// inference time.
	RestockLabel float64
}

// Encoding holds the stable categorical codes assigned within one run.
type Encoding struct {
	Category map[string]int
	Item     map[string]int
}

// encode assigns dense codes in sorted order, so two runs over the same
// data always agree.
func encode(values map[string]struct{}) map[string]int {
	keys := make([]string, 0, len(values))
	for v := range values {
		keys = append(keys, v)
	}
	sort.Strings(keys)
	codes := make(map[string]int, len(keys))
	for i, k := range keys {
		codes[k] = i
	}
	return codes
}

// BuildFeatures derives the full feature set from validated history rows:
// calendar parts, the (item, date) ordering, per-item lags, the training
// label and categorical encodings.
func BuildFeatures(records []domain.SalesRecord) ([]FeatureRow, Encoding) {
	rows := make([]FeatureRow, len(records))
	categories := make(map[string]struct{})
	items := make(map[string]struct{})

	for i, rec := range records {
		if t, err := time.Parse(pipeline.DateLayout, rec.Date); err == nil {
			rec.ParsedDate = t
		}
		row := FeatureRow{
			Record:           rec,
			Year:             domain.Missing(),
			Month:            domain.Missing(),
			Day:              domain.Missing(),
			PrevQtySold:      domain.Missing(),
			PrevClosingStock: domain.Missing(),
			RestockLabel:     domain.Missing(),
		}
		if rec.HasDate() {
			row.Year = float64(rec.ParsedDate.Year())
			row.Month = float64(rec.ParsedDate.Month())
			row.Day = float64(rec.ParsedDate.Day())
		}
		rows[i] = row
		categories[rec.Category] = struct{}{}
		items[rec.ItemName] = struct{}{}
	}

	enc := Encoding{Category: encode(categories), Item: encode(items)}
	for i := range rows {
		rows[i].CategoryCode = float64(enc.Category[rows[i].Record.Category])
		rows[i].ItemCode = float64(enc.Item[rows[i].Record.ItemName])
	}

	// Order by (item, date) ascending; the sort is stable so identical
	// dates keep their upload order. Rows without a date sort after the
	// dated ones within their item.
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a].Record, rows[b].Record
		if ra.ItemName != rb.ItemName {
			return ra.ItemName < rb.ItemName
		}
		if ra.HasDate() != rb.HasDate() {
			return ra.HasDate()
		}
		if !ra.HasDate() {
			return false
		}
		return ra.ParsedDate.Before(rb.ParsedDate)
	})

	// Lag and label chains run over dated rows only; an undated row
	// neither receives nor supplies a neighbour's values.
	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].Record.ItemName == rows[start].Record.ItemName {
			end++
		}
		var dated []int
		for i := start; i < end; i++ {
			if rows[i].Record.HasDate() {
				dated = append(dated, i)
			}
		}
		for k, i := range dated {
			if k > 0 {
				prev := rows[dated[k-1]].Record
				rows[i].PrevQtySold = prev.QtySold
				rows[i].PrevClosingStock = prev.ClosingStock
			}
			if k < len(dated)-1 {
				next := rows[dated[k+1]].Record
				label := next.QtySold - rows[i].Record.ClosingStock
				if !domain.IsMissing(label) && label < 0 {
					label = 0
				}
				rows[i].RestockLabel = label
			}
		}
		start = end
	}

	return rows, enc
}

// Vector lays the row out in FeatureSchema order. ok is false when any
// model-required field is still missing, in which case the row must be
// dropped from the matrix (with a warning, not a failure).
func (r FeatureRow) Vector() ([]float64, bool) {
	v := []float64{
		r.Record.Week,
		r.CategoryCode,
		r.ItemCode,
		r.Record.OpeningStock,
		r.Record.QtySold,
		r.Record.ClosingStock,
		r.Month,
		r.Year,
		r.Day,
	}
	for _, f := range v {
		if domain.IsMissing(f) {
			return nil, false
		}
	}
	return v, true
}
