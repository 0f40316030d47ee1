package domain

import "github.com/shopspring/decimal"

// CanonicalUnit is one of the three unit family anchors every recognized unit normalizes into
type CanonicalUnit string

const (
	UnitOunce      CanonicalUnit = "ounce"
	UnitFluidOunce CanonicalUnit = "fluid_ounce"
	UnitCount      CanonicalUnit = "count"
)

// Label returns the display label for the unit family ("oz", "fl oz", "count")
func (u CanonicalUnit) Label() string {
	switch u {
	case UnitOunce:
		return "oz"
	case UnitFluidOunce:
		return "fl oz"
	case UnitCount:
		return "count"
	}
	return ""
}

// QuantityUnit is a raw (quantity, unit token) pair recovered from a title
type QuantityUnit struct {
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

// NormalizedQuantity is a quantity expressed in its canonical unit family
type NormalizedQuantity struct {
	Quantity decimal.Decimal `json:"quantity"`
	Unit     CanonicalUnit   `json:"unit"`
}

// UnitPriceResult is the outcome of running a title and price through the whole pipeline
type UnitPriceResult struct {
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	UnitLabel        string          `json:"unitType"`
	OriginalQuantity decimal.Decimal `json:"quantity"`
	RawUnit          string          `json:"rawUnit"`
}
