package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokosmart/restock-backend/internal/domain"
)

// fixedModel answers every row with the same value.
type fixedModel struct {
	value float64
	rows  int
}

func (m *fixedModel) FeatureNames() []string { return FeatureSchema }

func (m *fixedModel) Predict(rows [][]float64) ([]float64, error) {
	m.rows = len(rows)
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = m.value
	}
	return out, nil
}

func TestRunScoresLatestRecordPerItem(t *testing.T) {
	m := &fixedModel{value: 6.4}
	p := New(m)

	set, err := p.Run(context.Background(), []domain.SalesRecord{
		rec("Beras", "07/01/2025", 50, 12, 38),
		rec("Beras", "08/01/2025", 38, 10, 28),
		rec("Minyak", "07/01/2025", 9, 2, 7),
	})
	require.NoError(t, err)

	assert.Equal(t, Name, set.Pipeline)
	assert.Equal(t, 2, m.rows, "one scored row per item")
	require.Len(t, set.Items, 2)

	beras := set.Items[0]
	assert.Equal(t, "Beras", beras.ItemName)
	assert.Equal(t, 28, beras.CurrentStock, "latest record's closing stock")
	assert.Equal(t, 10, beras.WeeklyDemand)
	assert.Equal(t, 6, beras.Restock, "model output rounded to whole units")
}

func TestRunDropsItemsWithMissingFeatures(t *testing.T) {
	p := New(&fixedModel{value: 3})

	set, err := p.Run(context.Background(), []domain.SalesRecord{
		rec("Beras", "08/01/2025", 38, 10, 28),
		rec("Minyak", "", 9, 2, 7), // no date, vector incomplete
	})
	require.NoError(t, err, "a dropped item never fails the run")

	require.Len(t, set.Items, 1)
	assert.Equal(t, "Beras", set.Items[0].ItemName)
}

func TestRunSingleRecordItem(t *testing.T) {
	p := New(&fixedModel{value: 2})

	set, err := p.Run(context.Background(), []domain.SalesRecord{
		rec("Beras", "07/01/2025", 50, 12, 38),
	})
	require.NoError(t, err, "missing lag features do not block scoring")
	require.Len(t, set.Items, 1)
	assert.Equal(t, 2, set.Items[0].Restock)
}

func TestRunNegativeStockClampedInOutput(t *testing.T) {
	p := New(&fixedModel{value: 0})

	set, err := p.Run(context.Background(), []domain.SalesRecord{
		rec("Beras", "07/01/2025", 10, 15, -5),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, set.Items[0].CurrentStock)
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(&fixedModel{})
	_, err := p.Run(ctx, []domain.SalesRecord{rec("Beras", "07/01/2025", 50, 12, 38)})
	assert.ErrorIs(t, err, context.Canceled)
}
