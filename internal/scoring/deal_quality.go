package scoring

import (
	"math"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// DealQualityInput carries the signals blended into the deal quality score
type DealQualityInput struct {
	UnitPrice               *decimal.Decimal
	CategoryMedianUnitPrice *decimal.Decimal
	DiscountPct             *decimal.Decimal
	Rating                  *decimal.Decimal
	ReviewCount             int
	IsPrime                 bool
}

// DealQuality blends relative unit price (40), discount depth (30),
// rating (20) and review volume (10), plus 5 for Prime.
func DealQuality(in DealQualityInput) domain.Score {
	components := []domain.ScoreComponent{
		unitPriceRatio(in.UnitPrice, in.CategoryMedianUnitPrice),
		discountDepth(in.DiscountPct),
		ratingShare(in.Rating),
		reviewVolume(in.ReviewCount, 2.5, 10),
		prime(in.IsPrime),
	}
	return finalize(components)
}

func unitPriceRatio(unitPrice, median *decimal.Decimal) domain.ScoreComponent {
	const name = "unit_price"
	if unitPrice == nil || median == nil {
		return skipped(name)
	}
	r, err := ratio(*unitPrice, *median)
	if err != nil {
		return failed(name, err)
	}

	switch {
	case r <= 0.7:
		return applied(name, 40)
	case r <= 0.8:
		return applied(name, 35)
	case r <= 0.9:
		return applied(name, 30)
	case r <= 1.0:
		return applied(name, 25)
	}
	return applied(name, math.Max(0, 25-(r-1.0)*50))
}

func discountDepth(discountPct *decimal.Decimal) domain.ScoreComponent {
	const name = "discount"
	if discountPct == nil {
		return skipped(name)
	}
	d, _ := discountPct.Float64()
	return applied(name, math.Min(30, d*0.6))
}

func ratingShare(rating *decimal.Decimal) domain.ScoreComponent {
	const name = "rating"
	if rating == nil {
		return skipped(name)
	}
	r, _ := rating.Float64()
	return applied(name, r/5.0*20)
}

func prime(isPrime bool) domain.ScoreComponent {
	if !isPrime {
		return skipped("prime")
	}
	return applied("prime", 5)
}
