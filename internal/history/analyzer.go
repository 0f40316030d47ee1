// Package history analyzes ordered price observations: the dedup policy for
// new points, window statistics, best time to buy and cross-product drop
// alerts. Callers own storage; every function here works on plain slices.
package history

import (
	"sort"
	"time"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	// DefaultStatisticsDays is the window used for statistics when none is given
	DefaultStatisticsDays = 30
	// DefaultBestTimeDays is the window used for best-time analysis when none is given
	DefaultBestTimeDays = 90

	recordInterval = 24 * time.Hour
	day            = 24 * time.Hour
	trendThreshold = 5
)

var (
	minPriceChange = decimal.RequireFromString("0.01")
	hundred        = decimal.NewFromInt(100)

	buyNowSavings = decimal.NewFromInt(1)
	waitSavings   = decimal.NewFromInt(5)
)

const (
	RecommendBuyNow = "Buy now!"
	RecommendWait   = "Wait for better price"
	RecommendGood   = "Good time to buy"
)

// ShouldRecord reports whether an observed price earns a new history point.
// A point is skipped only when the price moved less than a cent and the last
// point is younger than a day.
func ShouldRecord(last *domain.PricePoint, price decimal.Decimal, now time.Time) bool {
	if last == nil {
		return true
	}
	unchanged := last.Price.Sub(price).Abs().LessThan(minPriceChange)
	recent := now.Sub(last.RecordedAt) < recordInterval
	return !(unchanged && recent)
}

// Window returns the points recorded within days of now, oldest first.
func Window(points []domain.PricePoint, now time.Time, days int) []domain.PricePoint {
	return since(points, now.Add(-time.Duration(days)*day))
}

func since(points []domain.PricePoint, cutoff time.Time) []domain.PricePoint {
	var out []domain.PricePoint
	for _, p := range points {
		if !p.RecordedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecordedAt.Before(out[j].RecordedAt)
	})
	return out
}

// latest is the most recent point overall, regardless of window
func latest(points []domain.PricePoint) *domain.PricePoint {
	var newest *domain.PricePoint
	for i := range points {
		if newest == nil || !points[i].RecordedAt.Before(newest.RecordedAt) {
			newest = &points[i]
		}
	}
	return newest
}

// Statistics summarizes the window. The current price is the newest point
// overall; the change percentage compares it with the oldest point in the window.
func Statistics(points []domain.PricePoint, now time.Time, days int) domain.PriceStatistics {
	if days <= 0 {
		days = DefaultStatisticsDays
	}
	stats := domain.PriceStatistics{DaysAnalyzed: days, Trend: domain.TrendStable}

	window := Window(points, now, days)
	if len(window) == 0 {
		return stats
	}

	prices := make([]decimal.Decimal, len(window))
	for i, p := range window {
		prices[i] = p.Price
	}
	low := decimal.Min(prices[0], prices[1:]...)
	high := decimal.Max(prices[0], prices[1:]...)
	avg := decimal.Avg(prices[0], prices[1:]...).Round(2)
	current := latest(points).Price

	isLowest := current.Equal(low)
	isHighest := current.Equal(high)
	stats.MinPrice = &low
	stats.MaxPrice = &high
	stats.AvgPrice = &avg
	stats.CurrentPrice = &current
	stats.IsLowest = &isLowest
	stats.IsHighest = &isHighest
	stats.DataPoints = len(window)

	oldest := window[0].Price
	if oldest.IsPositive() {
		change := current.Sub(oldest).Div(oldest).Mul(hundred).Round(2)
		stats.PriceChangePct = &change
		stats.Trend = trendOf(change)
	}
	return stats
}

func trendOf(changePct decimal.Decimal) domain.Trend {
	threshold := decimal.NewFromInt(trendThreshold)
	switch {
	case changePct.LessThan(threshold.Neg()):
		return domain.TrendDown
	case changePct.GreaterThan(threshold):
		return domain.TrendUp
	}
	return domain.TrendStable
}

// BestPriceTime finds the lowest price in the window and recommends whether
// to buy now. Ties go to the most recent occurrence.
func BestPriceTime(points []domain.PricePoint, now time.Time, days int) domain.BestPriceTime {
	if days <= 0 {
		days = DefaultBestTimeDays
	}
	window := Window(points, now, days)
	if len(window) == 0 {
		return domain.BestPriceTime{}
	}

	best := window[0]
	for _, p := range window[1:] {
		if p.Price.LessThanOrEqual(best.Price) {
			best = p
		}
	}

	savings := latest(points).Price.Sub(best.Price).Round(2)
	daysAgo := int(now.Sub(best.RecordedAt) / day)
	bestPrice := best.Price
	bestDate := best.RecordedAt

	return domain.BestPriceTime{
		BestPrice:          &bestPrice,
		BestPriceDate:      &bestDate,
		DaysAgo:            &daysAgo,
		SavingsFromCurrent: &savings,
		Recommendation:     recommend(daysAgo, savings),
	}
}

func recommend(daysAgo int, savings decimal.Decimal) string {
	switch {
	case daysAgo < 7 && savings.LessThan(buyNowSavings):
		return RecommendBuyNow
	case savings.GreaterThan(waitSavings):
		return RecommendWait
	}
	return RecommendGood
}

// DropAlerts compares the first and last point of each series inside the
// last hours and reports drops of at least minDropPct, largest first.
func DropAlerts(series []domain.PriceSeries, minDropPct decimal.Decimal, hours int, now time.Time) []domain.DropAlert {
	cutoff := now.Add(-time.Duration(hours) * time.Hour)

	alerts := make([]domain.DropAlert, 0)
	for _, s := range series {
		recent := since(s.Points, cutoff)
		if len(recent) < 2 {
			continue
		}
		oldest, newest := recent[0], recent[len(recent)-1]
		if !oldest.Price.IsPositive() {
			continue
		}

		drop := oldest.Price.Sub(newest.Price).Div(oldest.Price).Mul(hundred)
		if drop.LessThan(minDropPct) {
			continue
		}
		alerts = append(alerts, domain.DropAlert{
			ASIN:      s.ASIN,
			Title:     s.Title,
			OldPrice:  oldest.Price,
			NewPrice:  newest.Price,
			DropPct:   drop.Round(2),
			Savings:   oldest.Price.Sub(newest.Price).Round(2),
			Timestamp: newest.RecordedAt,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DropPct.GreaterThan(alerts[j].DropPct)
	})
	return alerts
}
