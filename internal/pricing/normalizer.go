package pricing

import (
	"strings"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// weightToOunce maps weight tokens to ounces
var weightToOunce = map[string]decimal.Decimal{
	"oz":        decimal.RequireFromString("1.0"),
	"ounce":     decimal.RequireFromString("1.0"),
	"ounces":    decimal.RequireFromString("1.0"),
	"lb":        decimal.RequireFromString("16.0"),
	"lbs":       decimal.RequireFromString("16.0"),
	"pound":     decimal.RequireFromString("16.0"),
	"pounds":    decimal.RequireFromString("16.0"),
	"g":         decimal.RequireFromString("0.0353"),
	"gram":      decimal.RequireFromString("0.0353"),
	"grams":     decimal.RequireFromString("0.0353"),
	"kg":        decimal.RequireFromString("35.274"),
	"kilogram":  decimal.RequireFromString("35.274"),
	"kilograms": decimal.RequireFromString("35.274"),
}

// volumeToFluidOunce maps volume tokens to fluid ounces
var volumeToFluidOunce = map[string]decimal.Decimal{
	"fl oz":        decimal.RequireFromString("1.0"),
	"fl. oz":       decimal.RequireFromString("1.0"),
	"fl.oz":        decimal.RequireFromString("1.0"),
	"floz":         decimal.RequireFromString("1.0"),
	"fluid ounce":  decimal.RequireFromString("1.0"),
	"fluid ounces": decimal.RequireFromString("1.0"),
	"ml":           decimal.RequireFromString("0.0338"),
	"milliliter":   decimal.RequireFromString("0.0338"),
	"milliliters":  decimal.RequireFromString("0.0338"),
	"l":            decimal.RequireFromString("33.814"),
	"liter":        decimal.RequireFromString("33.814"),
	"liters":       decimal.RequireFromString("33.814"),
	"gal":          decimal.RequireFromString("128.0"),
	"gallon":       decimal.RequireFromString("128.0"),
	"gallons":      decimal.RequireFromString("128.0"),
	"qt":           decimal.RequireFromString("32.0"),
	"quart":        decimal.RequireFromString("32.0"),
	"quarts":       decimal.RequireFromString("32.0"),
	"pt":           decimal.RequireFromString("16.0"),
	"pint":         decimal.RequireFromString("16.0"),
	"pints":        decimal.RequireFromString("16.0"),
}

// countUnits are counted as-is
var countUnits = map[string]bool{
	"pack":   true,
	"count":  true,
	"ct":     true,
	"piece":  true,
	"pieces": true,
}

// UnitFamily reports which canonical family a raw unit token belongs to
func UnitFamily(unit string) (domain.CanonicalUnit, bool) {
	u := normalizeToken(unit)
	if _, ok := weightToOunce[u]; ok {
		return domain.UnitOunce, true
	}
	if _, ok := volumeToFluidOunce[u]; ok {
		return domain.UnitFluidOunce, true
	}
	if countUnits[u] {
		return domain.UnitCount, true
	}
	return "", false
}

// Normalize converts a quantity in a raw unit into its canonical family.
// ok is false for unknown units and for non-positive quantities.
func Normalize(quantity decimal.Decimal, unit string) (domain.NormalizedQuantity, bool) {
	if !quantity.IsPositive() {
		return domain.NormalizedQuantity{}, false
	}

	u := normalizeToken(unit)
	if u == "" {
		return domain.NormalizedQuantity{}, false
	}

	if factor, ok := weightToOunce[u]; ok {
		return domain.NormalizedQuantity{Quantity: quantity.Mul(factor), Unit: domain.UnitOunce}, true
	}
	if factor, ok := volumeToFluidOunce[u]; ok {
		return domain.NormalizedQuantity{Quantity: quantity.Mul(factor), Unit: domain.UnitFluidOunce}, true
	}
	if countUnits[u] {
		return domain.NormalizedQuantity{Quantity: quantity, Unit: domain.UnitCount}, true
	}

	return domain.NormalizedQuantity{}, false
}

func normalizeToken(unit string) string {
	return strings.Join(strings.Fields(strings.ToLower(unit)), " ")
}
