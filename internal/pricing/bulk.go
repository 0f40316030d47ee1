package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SizeOption is one purchasable size of the same product
type SizeOption struct {
	Label    string          `json:"size" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit" binding:"required"`
	Price    decimal.Decimal `json:"price"`
}

// BulkAnalysis is a size option annotated with its unit price and savings versus the cheapest option
type BulkAnalysis struct {
	SizeOption
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	SavingsVsBest decimal.Decimal `json:"savingsVsBest"`
	IsBest        bool            `json:"isBest"`
}

// BulkSavings ranks size options by unit price, cheapest first.
// Options whose unit price cannot be computed are left out.
func BulkSavings(options []SizeOption) []BulkAnalysis {
	analysis := make([]BulkAnalysis, 0, len(options))
	for _, opt := range options {
		unitPrice, ok := Calculate(opt.Price, opt.Quantity, opt.Unit)
		if !ok {
			continue
		}
		analysis = append(analysis, BulkAnalysis{SizeOption: opt, UnitPrice: unitPrice})
	}

	sort.SliceStable(analysis, func(i, j int) bool {
		return analysis[i].UnitPrice.LessThan(analysis[j].UnitPrice)
	})

	if len(analysis) == 0 {
		return analysis
	}

	best := analysis[0].UnitPrice
	for i := range analysis {
		analysis[i].IsBest = analysis[i].UnitPrice.Equal(best)
		if best.IsPositive() {
			analysis[i].SavingsVsBest = analysis[i].UnitPrice.Sub(best).Div(best).Mul(hundred).Round(2)
		}
	}

	return analysis
}

// SubscribeSaveValue compares regular and subscribe-and-save pricing
type SubscribeSaveValue struct {
	OriginalPrice       decimal.Decimal  `json:"originalPrice"`
	OriginalUnitPrice   *decimal.Decimal `json:"originalUnitPrice"`
	DiscountedPrice     *decimal.Decimal `json:"discountedPrice"`
	DiscountedUnitPrice *decimal.Decimal `json:"discountedUnitPrice"`
	Savings             *decimal.Decimal `json:"savings"`
	DiscountPct         *decimal.Decimal `json:"discountPct,omitempty"`
}

// SubscribeSave applies a recurring-order discount. Discounted fields stay
// empty when the unit price is unknown or the discount is zero.
func SubscribeSave(price, quantity decimal.Decimal, unit string, discountPct decimal.Decimal) SubscribeSaveValue {
	result := SubscribeSaveValue{OriginalPrice: price}

	unitPrice, ok := Calculate(price, quantity, unit)
	if !ok {
		return result
	}
	result.OriginalUnitPrice = &unitPrice

	if discountPct.IsZero() {
		return result
	}

	discounted := price.Mul(decimal.NewFromInt(1).Sub(discountPct.Div(hundred)))
	savings := price.Sub(discounted)
	pct := discountPct
	result.DiscountedPrice = &discounted
	result.Savings = &savings
	result.DiscountPct = &pct
	if dup, ok := Calculate(discounted, quantity, unit); ok {
		result.DiscountedUnitPrice = &dup
	}

	return result
}
