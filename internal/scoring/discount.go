package scoring

import (
	"fmt"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	inflationTolerance  = decimal.RequireFromString("1.1")
	significantDiscount = decimal.NewFromInt(15)
)

// IsTrueDiscount checks whether a claimed list price was ever actually
// charged. The whole supplied history is used; callers pick the window.
// Missing history and arithmetic failures give the benefit of the doubt.
func IsTrueDiscount(current, listPrice decimal.Decimal, history []domain.PricePoint) domain.DiscountVerdict {
	if len(history) == 0 {
		return domain.DiscountVerdict{
			IsLegitimate: true,
			Confidence:   domain.ConfidenceLow,
			Message:      "No price history available",
		}
	}

	prices := make([]decimal.Decimal, len(history))
	for i, p := range history {
		prices[i] = p.Price
	}
	maxHistorical := decimal.Max(prices[0], prices[1:]...)
	avg := decimal.Avg(prices[0], prices[1:]...)

	if !maxHistorical.IsPositive() || !avg.IsPositive() {
		logger.Debug().Str("max", maxHistorical.String()).Msg("discount validation fell back to benefit of the doubt")
		return unableToValidate()
	}

	if listPrice.GreaterThan(maxHistorical.Mul(inflationTolerance)) {
		realDiscount := current.Div(maxHistorical).Sub(one).Mul(hundred).Round(2)
		inflated := listPrice.Div(maxHistorical).Sub(one).Mul(hundred).Round(2)
		return domain.DiscountVerdict{
			IsLegitimate:    false,
			Confidence:      domain.ConfidenceHigh,
			Message:         fmt.Sprintf("Fake MSRP. Never sold above $%s", maxHistorical.StringFixed(2)),
			RealDiscountPct: &realDiscount,
			InflatedByPct:   &inflated,
		}
	}

	vsAverage := avg.Sub(current).Div(avg).Mul(hundred)
	realDiscount := vsAverage.Round(2)
	if vsAverage.GreaterThan(significantDiscount) {
		return domain.DiscountVerdict{
			IsLegitimate:    true,
			Confidence:      domain.ConfidenceHigh,
			Message:         fmt.Sprintf("Legitimate %s%% discount vs 90-day average", vsAverage.StringFixed(0)),
			RealDiscountPct: &realDiscount,
		}
	}

	return domain.DiscountVerdict{
		IsLegitimate:    true,
		Confidence:      domain.ConfidenceMedium,
		Message:         "Modest discount",
		RealDiscountPct: &realDiscount,
	}
}

func unableToValidate() domain.DiscountVerdict {
	return domain.DiscountVerdict{
		IsLegitimate: true,
		Confidence:   domain.ConfidenceLow,
		Message:      "Unable to validate discount",
	}
}
