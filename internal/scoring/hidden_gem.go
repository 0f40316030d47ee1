package scoring

import (
	"math"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// HiddenGemInput carries the signals for a well-rated product buried in search results
type HiddenGemInput struct {
	Rating                  *decimal.Decimal
	ReviewCount             int
	SearchPosition          int
	UnitPrice               *decimal.Decimal
	CategoryMedianUnitPrice *decimal.Decimal
	IsSponsored             bool
	SponsoredFrequency      float64
}

var (
	ratingExcellent = decimal.RequireFromString("4.5")
	ratingGood      = decimal.RequireFromString("4.0")
	ratingFair      = decimal.RequireFromString("3.5")
)

// HiddenGem scores how likely a good, unadvertised product is being buried.
func HiddenGem(in HiddenGemInput) domain.Score {
	components := []domain.ScoreComponent{
		hiddenGemRating(in.Rating),
		reviewVolume(in.ReviewCount, 5, 20),
		buriedPosition(in.SearchPosition),
		priceVsCategory(in.UnitPrice, in.CategoryMedianUnitPrice),
		adSpend(in.IsSponsored, in.SponsoredFrequency),
	}
	return finalize(components)
}

func hiddenGemRating(rating *decimal.Decimal) domain.ScoreComponent {
	const name = "rating"
	switch {
	case rating == nil:
		return skipped(name)
	case rating.GreaterThanOrEqual(ratingExcellent):
		return applied(name, 30)
	case rating.GreaterThanOrEqual(ratingGood):
		return applied(name, 20)
	case rating.GreaterThanOrEqual(ratingFair):
		return applied(name, 10)
	}
	return applied(name, 0)
}

func reviewVolume(reviewCount int, factor, limit float64) domain.ScoreComponent {
	const name = "review_count"
	if reviewCount <= 0 {
		return skipped(name)
	}
	return applied(name, logScale(reviewCount, factor, limit))
}

// buriedPosition rewards results found past the second page
func buriedPosition(position int) domain.ScoreComponent {
	const name = "search_position"
	if position <= 20 {
		return skipped(name)
	}
	return applied(name, math.Min(30, float64(position-20)*2))
}

func priceVsCategory(unitPrice, median *decimal.Decimal) domain.ScoreComponent {
	const name = "price_vs_category"
	if unitPrice == nil || median == nil {
		return skipped(name)
	}
	r, err := ratio(median.Sub(*unitPrice), *median)
	if err != nil {
		return failed(name, err)
	}
	discount := r * 100
	if discount <= 0 {
		return applied(name, 0)
	}
	return applied(name, math.Min(30, discount))
}

func adSpend(isSponsored bool, frequency float64) domain.ScoreComponent {
	const name = "ad_spend"
	switch {
	case isSponsored:
		return applied(name, 0)
	case frequency < 0.1:
		return applied(name, 20)
	}
	return applied(name, 10)
}
