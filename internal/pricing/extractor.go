// Package pricing turns free-text product titles and prices into
// comparable per-unit prices.
package pricing

import (
	"regexp"
	"strings"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// titlePattern is one entry of the ordered extraction list.
// Combined patterns capture (count, quantity, unit); all others capture (quantity, unit).
type titlePattern struct {
	re       *regexp.Regexp
	combined bool
}

// titlePatterns are tried in order against the lower-cased title and the first
// match wins. A title mentioning both a weight and a count always resolves to
// the weight because weight patterns are scanned first.
var titlePatterns = []titlePattern{
	// Weight
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(oz|ounce|ounces)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(lb|lbs|pound|pounds)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(g|gram|grams)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(kg|kilogram|kilograms)\b`)},

	// Volume
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(fl\.?\s*oz|fluid\s+ounces?)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(ml|milliliter|milliliters)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(l|liter|liters)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(gal|gallon|gallons)\b`)},

	// Count
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(pack)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(count)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(ct)\b`)},
	{re: regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-?\s*(pieces?)\b`)},

	// Multipack, e.g. "12 x 16 oz"
	{re: regexp.MustCompile(`(\d+)\s*[x×]\s*(\d+(?:\.\d+)?)\s*(oz|lb|g|ml|fl\.?\s*oz)`), combined: true},
}

// Extract recovers a quantity and raw unit token from a product title.
// ok is false when no pattern matches.
func Extract(title string) (domain.QuantityUnit, bool) {
	if strings.TrimSpace(title) == "" {
		return domain.QuantityUnit{}, false
	}

	lower := strings.ToLower(title)
	for _, p := range titlePatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}

		if p.combined {
			count, err := decimal.NewFromString(m[1])
			if err != nil {
				continue
			}
			qty, err := decimal.NewFromString(m[2])
			if err != nil {
				continue
			}
			return domain.QuantityUnit{Quantity: count.Mul(qty), Unit: cleanUnitToken(m[3])}, true
		}

		qty, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		return domain.QuantityUnit{Quantity: qty, Unit: cleanUnitToken(m[2])}, true
	}

	return domain.QuantityUnit{}, false
}

// cleanUnitToken collapses inner whitespace so "fl  oz" and "fl oz" look alike
func cleanUnitToken(unit string) string {
	return strings.Join(strings.Fields(strings.ToLower(unit)), " ")
}
