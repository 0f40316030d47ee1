// Package scoring computes the hidden-gem, deal-quality and price-performance
// scores and validates claimed discounts. Every function is pure and never
// fails: terms that cannot be computed contribute nothing and the score
// falls back to its neutral value.
package scoring

import (
	"math"

	"github.com/dealscope/backend/internal/domain"
	"github.com/dealscope/backend/internal/pkg/logging"
	"github.com/shopspring/decimal"
)

var logger = logging.New("scoring")

const (
	maxScore            = 100
	neutralPerformance  = 50
	defaultLookbackDays = 90
)

var hundred = decimal.NewFromInt(100)

// ratio divides num by den, reporting ErrArithmetic for a non-positive divisor
func ratio(num, den decimal.Decimal) (float64, error) {
	if !den.IsPositive() {
		return 0, domain.ErrArithmetic
	}
	f, _ := num.Div(den).Float64()
	return f, nil
}

// finalize sums the applied components and truncates into [0,100]
func finalize(components []domain.ScoreComponent) domain.Score {
	sum := 0.0
	for _, c := range components {
		if c.Applied && c.Err == nil {
			sum += c.Points
		}
	}
	return domain.Score{Value: clamp(int(sum)), Components: components}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

func logScale(n int, factor, limit float64) float64 {
	return math.Min(limit, math.Log10(float64(n))*factor)
}

func skipped(name string) domain.ScoreComponent {
	return domain.ScoreComponent{Name: name}
}

func failed(name string, err error) domain.ScoreComponent {
	logger.Debug().Str("term", name).Err(err).Msg("score term skipped")
	return domain.ScoreComponent{Name: name, Err: err}
}

func applied(name string, points float64) domain.ScoreComponent {
	return domain.ScoreComponent{Name: name, Points: points, Applied: true}
}
