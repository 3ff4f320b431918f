package domain

import (
	"math"
	"time"
)

// SalesRecord is one row of uploaded sales/stock history. Numeric fields use
// NaN as the missing marker after coercion; ParsedDate is the zero time when
// TANGGAL could not be parsed.
type SalesRecord struct {
	Week         float64
	Date         string
	ParsedDate   time.Time
	Category     string
	ItemName     string
	Unit         string
	OpeningStock float64
	QtySold      float64
	ClosingStock float64
}

// HasDate reports whether the record carries a parseable date.
func (r SalesRecord) HasDate() bool {
	return !r.ParsedDate.IsZero()
}

// StockLevel is the minimal per-item row the projection pipeline consumes.
type StockLevel struct {
	ItemName     string
	ClosingStock float64
}

// RestockRecommendation is the single per-item output row surfaced to
// callers and exports.
type RestockRecommendation struct {
	Category     string `json:"category,omitempty" db:"category"`
	ItemName     string `json:"item_name" db:"item_name"`
	Unit         string `json:"unit,omitempty" db:"unit"`
	CurrentStock int    `json:"current_stock" db:"current_stock"`
	WeeklyDemand int    `json:"weekly_demand" db:"weekly_demand"`
	Restock      int    `json:"restock" db:"restock"`
}

// RecommendationSet is the result of one pipeline run.
type RecommendationSet struct {
	Pipeline    string                  `json:"pipeline"`
	GeneratedAt time.Time               `json:"generated_at"`
	Items       []RestockRecommendation `json:"items"`
}

// TotalRestock sums the recommended restock quantity over all items.
func (s *RecommendationSet) TotalRestock() int {
	total := 0
	for _, item := range s.Items {
		total += item.Restock
	}
	return total
}

// RecommendationRun is a persisted pipeline execution.
type RecommendationRun struct {
	ID          string    `json:"id" db:"id"`
	Pipeline    string    `json:"pipeline" db:"pipeline"`
	ItemCount   int       `json:"item_count" db:"item_count"`
	TotalQty    int       `json:"total_qty" db:"total_qty"`
	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`
}

// Missing is the marker for numeric values that failed coercion.
func Missing() float64 {
	return math.NaN()
}

// IsMissing reports whether v is the missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}
