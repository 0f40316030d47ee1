package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one observation in a product's append-only price history
type PricePoint struct {
	ID          int64            `json:"id"`
	ASIN        string           `json:"asin"`
	Price       decimal.Decimal  `json:"price"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
	IsPrime     bool             `json:"isPrime"`
	IsSponsored bool             `json:"isSponsored"`
	InStock     bool             `json:"inStock"`
	RecordedAt  time.Time        `json:"recordedAt"`
}

// PriceObservation is a price seen during a scrape, before the dedup policy decides whether to keep it
type PriceObservation struct {
	Price       decimal.Decimal
	UnitPrice   *decimal.Decimal
	IsPrime     bool
	IsSponsored bool
	InStock     bool
}

// Trend is the direction of price movement inside an analysis window
type Trend string

const (
	TrendDown   Trend = "down"
	TrendUp     Trend = "up"
	TrendStable Trend = "stable"
)

// PriceStatistics aggregates a window of price history
type PriceStatistics struct {
	MinPrice       *decimal.Decimal `json:"minPrice"`
	MaxPrice       *decimal.Decimal `json:"maxPrice"`
	AvgPrice       *decimal.Decimal `json:"avgPrice"`
	CurrentPrice   *decimal.Decimal `json:"currentPrice"`
	PriceChangePct *decimal.Decimal `json:"priceChangePct"`
	IsLowest       *bool            `json:"isLowest"`
	IsHighest      *bool            `json:"isHighest"`
	DataPoints     int              `json:"dataPoints"`
	DaysAnalyzed   int              `json:"daysAnalyzed"`
	Trend          Trend            `json:"trend"`
}

// BestPriceTime describes when a product was cheapest inside a window
type BestPriceTime struct {
	BestPrice          *decimal.Decimal `json:"bestPrice"`
	BestPriceDate      *time.Time       `json:"bestPriceDate"`
	DaysAgo            *int             `json:"daysAgo"`
	SavingsFromCurrent *decimal.Decimal `json:"savingsFromCurrent"`
	Recommendation     string           `json:"recommendation,omitempty"`
}

// DropAlert flags a product whose price fell by at least a threshold inside a window
type DropAlert struct {
	ASIN      string          `json:"asin"`
	Title     string          `json:"title"`
	OldPrice  decimal.Decimal `json:"oldPrice"`
	NewPrice  decimal.Decimal `json:"newPrice"`
	DropPct   decimal.Decimal `json:"dropPercentage"`
	Savings   decimal.Decimal `json:"savings"`
	Timestamp time.Time       `json:"timestamp"`
}

// PriceSeries is one product's ordered history, used for cross-product scans
type PriceSeries struct {
	ASIN   string
	Title  string
	Points []PricePoint
}
