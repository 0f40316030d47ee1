package pricing

import (
	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// UnitPricePlaces is the number of fractional digits kept on unit prices
const UnitPricePlaces = 4

// Calculate returns price per canonical unit, rounded half-up to four places.
// It is the only place unit prices are computed. ok is false for negative
// prices, zero quantities and unknown units.
func Calculate(price, quantity decimal.Decimal, unit string) (decimal.Decimal, bool) {
	if price.IsNegative() || quantity.IsZero() || unit == "" {
		return decimal.Decimal{}, false
	}

	normalized, ok := Normalize(quantity, unit)
	if !ok || normalized.Quantity.IsZero() {
		return decimal.Decimal{}, false
	}

	// Round is half away from zero, which is half-up for the non-negative values allowed here.
	return price.Div(normalized.Quantity).Round(UnitPricePlaces), true
}

// ExtractAndCalculate chains extraction, normalization and calculation.
// OriginalQuantity is the quantity as written in the title, for display.
func ExtractAndCalculate(title string, price decimal.Decimal) (domain.UnitPriceResult, bool) {
	qu, ok := Extract(title)
	if !ok {
		return domain.UnitPriceResult{}, false
	}

	unitPrice, ok := Calculate(price, qu.Quantity, qu.Unit)
	if !ok {
		return domain.UnitPriceResult{}, false
	}

	family, _ := UnitFamily(qu.Unit)
	return domain.UnitPriceResult{
		UnitPrice:        unitPrice,
		UnitLabel:        family.Label(),
		OriginalQuantity: qu.Quantity,
		RawUnit:          qu.Unit,
	}, true
}
