package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokosmart/restock-backend/internal/domain"
)

func rec(item, date string, opening, sold, closing float64) domain.SalesRecord {
	return domain.SalesRecord{
		Week:         1,
		Date:         date,
		Category:     "Sembako",
		ItemName:     item,
		Unit:         "kg",
		OpeningStock: opening,
		QtySold:      sold,
		ClosingStock: closing,
	}
}

func TestBuildFeaturesCalendarParts(t *testing.T) {
	rows, _ := BuildFeatures([]domain.SalesRecord{
		rec("Beras", "07/01/2025", 50, 12, 38),
	})
	require.Len(t, rows, 1)

	assert.Equal(t, 2025.0, rows[0].Year)
	assert.Equal(t, 1.0, rows[0].Month)
	assert.Equal(t, 7.0, rows[0].Day, "day/month layout, not month/day")
}

func TestBuildFeaturesUnparseableDate(t *testing.T) {
	rows, _ := BuildFeatures([]domain.SalesRecord{
		rec("Beras", "January 7", 50, 12, 38),
	})

	assert.False(t, rows[0].Record.HasDate())
	assert.True(t, domain.IsMissing(rows[0].Year))
	assert.True(t, domain.IsMissing(rows[0].Month))
	assert.True(t, domain.IsMissing(rows[0].Day))
}

func TestBuildFeaturesOrdering(t *testing.T) {
	rows, _ := BuildFeatures([]domain.SalesRecord{
		rec("Minyak", "09/01/2025", 9, 2, 7),
		rec("Beras", "08/01/2025", 38, 10, 28),
		rec("Beras", "", 0, 0, 0),
		rec("Beras", "07/01/2025", 50, 12, 38),
	})
	require.Len(t, rows, 4)

	assert.Equal(t, "Beras", rows[0].Record.ItemName)
	assert.Equal(t, "07/01/2025", rows[0].Record.Date)
	assert.Equal(t, "08/01/2025", rows[1].Record.Date)
	assert.Equal(t, "", rows[2].Record.Date, "undated rows sort after dated within the item")
	assert.Equal(t, "Minyak", rows[3].Record.ItemName)
}

func TestBuildFeaturesLags(t *testing.T) {
	rows, _ := BuildFeatures([]domain.SalesRecord{
		rec("Beras", "07/01/2025", 50, 12, 38),
		rec("Beras", "08/01/2025", 38, 10, 28),
		rec("Minyak", "07/01/2025", 9, 2, 7),
	})

	// First dated record of each item has no lag.
	assert.True(t, domain.IsMissing(rows[0].PrevQtySold))
	assert.True(t, domain.IsMissing(rows[0].PrevClosingStock))
	assert.True(t, domain.IsMissing(rows[2].PrevQtySold))

	// Second record lags the first; the other item's rows never leak in.
	assert.Equal(t, 12.0, rows[1].PrevQtySold)
	assert.Equal(t, 38.0, rows[1].PrevClosingStock)
}

func TestBuildFeaturesLagsSkipUndatedRows(t *testing.T) {
	rows, _ := BuildFeatures([]domain.SalesRecord{
		rec("Beras", "07/01/2025", 50, 12, 38),
		rec("Beras", "", 99, 99, 99),
		rec("Beras", "08/01/2025", 38, 10, 28),
	})

	// rows: dated 07, dated 08, undated.
	assert.Equal(t, 12.0, rows[1].PrevQtySold, "lag chain runs over dated rows only")
	assert.True(t, domain.IsMissing(rows[2].PrevQtySold), "undated row receives no lag")
}

func TestBuildFeaturesRestockLabel(t *testing.T) {
	rows, _ := BuildFeatures([]domain.SalesRecord{
		rec("Beras", "07/01/2025", 50, 12, 38),
		rec("Beras", "08/01/2025", 38, 45, 28),
		rec("Beras", "09/01/2025", 28, 3, 25),
	})

	// Label = next period's sales minus this period's closing stock,
	// floored at zero. The last record has no next period.
	assert.Equal(t, 7.0, rows[0].RestockLabel)  // 45 - 38
	assert.Equal(t, 0.0, rows[1].RestockLabel)  // max(0, 3 - 28)
	assert.True(t, domain.IsMissing(rows[2].RestockLabel))
}

func TestEncodingIsSortedAndDeterministic(t *testing.T) {
	records := []domain.SalesRecord{
		rec("Minyak", "07/01/2025", 9, 2, 7),
		rec("Beras", "07/01/2025", 50, 12, 38),
		rec("Gula", "07/01/2025", 20, 5, 15),
	}

	_, enc1 := BuildFeatures(records)
	_, enc2 := BuildFeatures(records)

	assert.Equal(t, map[string]int{"Beras": 0, "Gula": 1, "Minyak": 2}, enc1.Item)
	assert.Equal(t, enc1.Item, enc2.Item)
	assert.Equal(t, enc1.Category, enc2.Category)
}

func TestVector(t *testing.T) {
	rows, _ := BuildFeatures([]domain.SalesRecord{
		rec("Beras", "07/01/2025", 50, 12, 38),
	})

	v, ok := rows[0].Vector()
	require.True(t, ok)
	require.Len(t, v, len(FeatureSchema))
	assert.Equal(t, []float64{1, 0, 0, 50, 12, 38, 1, 2025, 7}, v)

	undated, _ := BuildFeatures([]domain.SalesRecord{rec("Beras", "", 50, 12, 38)})
	_, ok = undated[0].Vector()
	assert.False(t, ok, "missing calendar parts invalidate the vector")
}
