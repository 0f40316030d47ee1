package scoring

import (
	"time"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	nearRecordFactor = decimal.RequireFromString("1.02")
	one              = decimal.NewFromInt(1)
)

// PricePerformance rates the current price against its own history inside
// the lookback window: the window minimum scores 100 and the maximum 0.
// No data in the window is neutral (50). days <= 0 means 90.
func PricePerformance(current decimal.Decimal, history []domain.PricePoint, days int, now time.Time) domain.Score {
	if days <= 0 {
		days = defaultLookbackDays
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	var prices []decimal.Decimal
	for _, p := range history {
		if !p.RecordedAt.Before(cutoff) {
			prices = append(prices, p.Price)
		}
	}
	if len(prices) == 0 {
		return domain.Score{Value: neutralPerformance}
	}

	low, high := decimal.Min(prices[0], prices[1:]...), decimal.Max(prices[0], prices[1:]...)
	avg := decimal.Avg(prices[0], prices[1:]...)

	if low.Equal(high) {
		return domain.Score{Value: maxScore, Components: []domain.ScoreComponent{applied("single_price", maxScore)}}
	}

	position := current.Sub(low).Div(high.Sub(low))
	score := int(one.Sub(position).Mul(hundred).IntPart())
	components := []domain.ScoreComponent{applied("range_position", float64(score))}

	if current.LessThanOrEqual(low.Mul(nearRecordFactor)) {
		bonus := 10
		if score+bonus > maxScore {
			bonus = maxScore - score
		}
		if bonus < 0 {
			bonus = 0
		}
		score += bonus
		components = append(components, applied("near_record_low", float64(bonus)))
	}

	if current.GreaterThan(avg) {
		r, err := ratio(current.Sub(avg), avg)
		if err != nil {
			logger.Debug().Err(err).Msg("price performance fell back to neutral")
			return domain.Score{Value: neutralPerformance, Err: err}
		}
		penalty := int(minFloat(20, r*50))
		score -= penalty
		components = append(components, applied("above_average", float64(-penalty)))
	}

	return domain.Score{Value: clamp(score), Components: components}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
