package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokosmart/restock-backend/internal/dataset"
	"github.com/tokosmart/restock-backend/internal/domain"
)

func historyTable() *dataset.Table {
	return &dataset.Table{
		Columns: []string{
			ColWeek, ColDate, ColCategory, ColItemName,
			ColUnit, ColOpeningStock, ColQtySold, ColClosingStock,
		},
		Rows: [][]string{
			{"1", "07/01/2025", "Sembako", "Beras", "kg", "50", "12", "38"},
			{"1", "08/01/2025", "Sembako", "Beras", "kg", "38", "1,200", "26"},
		},
	}
}

func TestValidateHistory(t *testing.T) {
	records, err := ValidateHistory(historyTable())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Beras", records[0].ItemName)
	assert.Equal(t, 50.0, records[0].OpeningStock)
	assert.Equal(t, 1200.0, records[1].QtySold, "thousands separator tolerated")
}

func TestValidateHistoryMissingColumns(t *testing.T) {
	table := historyTable()
	table.Columns[7] = "SISA" // was STOK AKHIR
	table.Columns[1] = "WAKTU"

	_, err := ValidateHistory(table)
	require.Error(t, err)

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{ColDate, ColClosingStock}, schemaErr.Missing,
		"every missing column reported, not only the first")
	assert.Contains(t, schemaErr.Error(), "STOK AKHIR")
}

func TestValidateHistoryBadCellsBecomeMissing(t *testing.T) {
	table := historyTable()
	table.Rows[0][5] = "abc"
	table.Rows[0][6] = ""

	records, err := ValidateHistory(table)
	require.NoError(t, err, "bad cells never fail the upload")

	assert.True(t, domain.IsMissing(records[0].OpeningStock))
	assert.True(t, domain.IsMissing(records[0].QtySold))
	assert.Equal(t, 38.0, records[0].ClosingStock, "valid cells in the same row survive")
}

func TestValidateCurrentStock(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{ColItemName, ColClosingStock, "CATATAN"},
		Rows: [][]string{
			{"Rice ", "5", "extra column ignored"},
			{"Minyak Goreng", "x"},
		},
	}

	levels, err := ValidateCurrentStock(table)
	require.NoError(t, err)
	require.Len(t, levels, 2)

	assert.Equal(t, "Rice", levels[0].ItemName, "names trimmed for the join")
	assert.Equal(t, 5.0, levels[0].ClosingStock)
	assert.True(t, domain.IsMissing(levels[1].ClosingStock))
}

func TestValidateCurrentStockMissingColumns(t *testing.T) {
	table := &dataset.Table{
		Columns: []string{ColItemName},
		Rows:    [][]string{{"Beras"}},
	}

	_, err := ValidateCurrentStock(table)
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{ColClosingStock}, schemaErr.Missing)
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		missing  bool
	}{
		{name: "Plain Integer", input: "42", expected: 42},
		{name: "Padded", input: "  7 ", expected: 7},
		{name: "Decimal", input: "3.5", expected: 3.5},
		{name: "Thousands Separator", input: "1,200", expected: 1200},
		{name: "Empty", input: "", missing: true},
		{name: "Text", input: "abc", missing: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coerceNumber(tt.input)
			if tt.missing {
				assert.True(t, domain.IsMissing(got))
			} else {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}
