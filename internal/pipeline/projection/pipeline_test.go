package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokosmart/restock-backend/internal/domain"
	"github.com/tokosmart/restock-backend/internal/model"
)

// gridModel returns a scripted daily demand per item code, consumed in the
// order the grid presents that item's rows.
type gridModel struct {
	perDay map[int][]float64
}

func (m *gridModel) FeatureNames() []string { return FeatureSchema }

func (m *gridModel) Predict(rows [][]float64) ([]float64, error) {
	next := make(map[int]int, len(m.perDay))
	out := make([]float64, len(rows))
	for i, row := range rows {
		code := int(row[0])
		out[i] = m.perDay[code][next[code]]
		next[code]++
	}
	return out, nil
}

func fixedNow() time.Time {
	return time.Date(2025, time.January, 6, 12, 0, 0, 0, time.UTC) // a Monday
}

func TestRunDemandMinusStock(t *testing.T) {
	codes := model.ItemCodeMap{"Beras": 0, "Gula": 1}
	m := &gridModel{perDay: map[int][]float64{
		0: {2, 2, 2, 2, 2, 1, 1}, // sums to 12
		1: {1, 1, 1, 0, 0, 0, 0}, // sums to 3
	}}

	p := New(m, codes, DefaultHorizonDays)
	p.Now = fixedNow

	set, err := p.Run(context.Background(), []domain.StockLevel{
		{ItemName: "Beras", ClosingStock: 5},
		{ItemName: "Gula", ClosingStock: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, Name, set.Pipeline)
	require.Len(t, set.Items, 2)

	assert.Equal(t, "Beras", set.Items[0].ItemName, "largest restock first")
	assert.Equal(t, 12, set.Items[0].WeeklyDemand)
	assert.Equal(t, 5, set.Items[0].CurrentStock)
	assert.Equal(t, 7, set.Items[0].Restock)

	assert.Equal(t, "Gula", set.Items[1].ItemName)
	assert.Equal(t, 3, set.Items[1].Restock)
}

func TestRunRestockNeverNegative(t *testing.T) {
	codes := model.ItemCodeMap{"Beras": 0}
	m := &gridModel{perDay: map[int][]float64{0: {1, 0, 0, 0, 0, 0, 0}}}

	p := New(m, codes, DefaultHorizonDays)
	p.Now = fixedNow

	set, err := p.Run(context.Background(), []domain.StockLevel{
		{ItemName: "Beras", ClosingStock: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, set.Items[0].Restock, "overstocked item floors at zero")
	assert.Equal(t, 1, set.Items[0].WeeklyDemand)
}

func TestRunUnknownUploadItemIgnored(t *testing.T) {
	codes := model.ItemCodeMap{"Beras": 0}
	m := &gridModel{perDay: map[int][]float64{0: {1, 1, 1, 1, 1, 1, 1}}}

	p := New(m, codes, DefaultHorizonDays)
	p.Now = fixedNow

	set, err := p.Run(context.Background(), []domain.StockLevel{
		{ItemName: "Beras", ClosingStock: 2},
		{ItemName: "Barang Baru", ClosingStock: 50},
	})
	require.NoError(t, err)

	require.Len(t, set.Items, 1, "items without a learned code are not scored")
	assert.Equal(t, "Beras", set.Items[0].ItemName)
}

func TestRunKnownItemAbsentFromUpload(t *testing.T) {
	codes := model.ItemCodeMap{"Beras": 0}
	m := &gridModel{perDay: map[int][]float64{0: {1, 1, 1, 1, 1, 1, 1}}}

	p := New(m, codes, DefaultHorizonDays)
	p.Now = fixedNow

	set, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, set.Items, 1)
	assert.Equal(t, 0, set.Items[0].CurrentStock, "absent stock defaults to zero")
	assert.Equal(t, 7, set.Items[0].Restock)
}

func TestRunLastStockRowWins(t *testing.T) {
	codes := model.ItemCodeMap{"Beras": 0}
	m := &gridModel{perDay: map[int][]float64{0: {0, 0, 0, 0, 0, 0, 0}}}

	p := New(m, codes, DefaultHorizonDays)
	p.Now = fixedNow

	set, err := p.Run(context.Background(), []domain.StockLevel{
		{ItemName: "Beras", ClosingStock: 3},
		{ItemName: "Beras", ClosingStock: 8},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, set.Items[0].CurrentStock)
}

func TestRunIsDeterministic(t *testing.T) {
	codes := model.ItemCodeMap{"Beras": 0, "Gula": 1, "Minyak": 2}
	m := &gridModel{perDay: map[int][]float64{
		0: {2, 2, 2, 2, 2, 2, 2},
		1: {2, 2, 2, 2, 2, 2, 2},
		2: {1, 1, 1, 1, 1, 1, 1},
	}}
	levels := []domain.StockLevel{
		{ItemName: "Gula", ClosingStock: 4},
		{ItemName: "Beras", ClosingStock: 4},
	}

	p := New(m, codes, DefaultHorizonDays)
	p.Now = fixedNow

	first, err := p.Run(context.Background(), levels)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), levels)
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items)
	// Equal restock ties keep sorted-name order.
	assert.Equal(t, "Beras", first.Items[0].ItemName)
	assert.Equal(t, "Gula", first.Items[1].ItemName)
}

func TestBuildFutureGrid(t *testing.T) {
	codes := model.ItemCodeMap{"Gula": 1, "Beras": 0}
	start := fixedNow()

	grid := BuildFutureGrid(codes, start, 7)
	require.Len(t, grid, 14)

	// Day-major, names sorted within each day; grid starts tomorrow.
	assert.Equal(t, "Beras", grid[0].ItemName)
	assert.Equal(t, "Gula", grid[1].ItemName)
	assert.Equal(t, start.AddDate(0, 0, 1), grid[0].Date)
	assert.Equal(t, start.AddDate(0, 0, 7), grid[13].Date)
}

func TestFutureRowVector(t *testing.T) {
	row := FutureRow{
		ItemName: "Beras",
		Date:     time.Date(2025, time.January, 7, 0, 0, 0, 0, time.UTC), // a Tuesday
		ItemCode: 4,
	}

	v := row.Vector()
	require.Len(t, v, len(FeatureSchema))
	assert.Equal(t, 4.0, v[0])
	assert.Equal(t, 1.0, v[1], "day of week counts from Monday=0")
	assert.Equal(t, 1.0, v[2])
	assert.Equal(t, 2025.0, v[3])
	assert.Equal(t, 2.0, v[4], "ISO week of 2025-01-07")
}
