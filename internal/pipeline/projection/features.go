package projection

import (
	"time"

	"github.com/tokosmart/restock-backend/internal/model"
)

// FeatureSchema is the declared inference contract of the daily sales
// forecast model, in training order.
var FeatureSchema = []string{"item_code", "dayofweek", "month", "year", "weekofyear"}

// FutureRow is one (item, future date) cell of the projection grid. The
// item name and date are carried for the aggregation join; only Vector()
// reaches the model.
type FutureRow struct {
	ItemName string
	Date     time.Time
	ItemCode int
}

// BuildFutureGrid constructs the full cross-product of known items and the
// next horizon consecutive days after start. Items iterate in sorted order
// so the grid, and everything derived from it, is deterministic.
func BuildFutureGrid(codes model.ItemCodeMap, start time.Time, horizon int) []FutureRow {
	names := codes.SortedNames()
	grid := make([]FutureRow, 0, len(names)*horizon)
	for d := 1; d <= horizon; d++ {
		date := start.AddDate(0, 0, d)
		for _, name := range names {
			grid = append(grid, FutureRow{
				ItemName: name,
				Date:     date,
				ItemCode: codes[name],
			})
		}
	}
	return grid
}

// Vector lays the row out in FeatureSchema order. Day-of-week counts from
// Monday=0, matching the convention the model was trained with.
func (r FutureRow) Vector() []float64 {
	return []float64{
		float64(r.ItemCode),
		float64((int(r.Date.Weekday()) + 6) % 7),
		float64(r.Date.Month()),
		float64(r.Date.Year()),
		float64(weekOfYear(r.Date)),
	}
}

// weekOfYear returns the ISO week number, which handles year-boundary
// weeks, or 0 when the date is malformed rather than failing the batch.
func weekOfYear(t time.Time) int {
	if t.IsZero() {
		return 0
	}
	_, week := t.ISOWeek()
	return week
}
