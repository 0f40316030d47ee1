package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// CategoryStats returns stored statistics for category, computing and
// persisting them on first request.
func (s *ProductService) CategoryStats(ctx context.Context, category string) (*domain.CategoryStatistics, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, domain.ErrInvalidRequest
	}

	stats, err := s.stats.Get(ctx, category)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, fmt.Errorf("load category stats: %w", err)
	}
	return s.RefreshCategoryStats(ctx, category)
}

// RefreshCategoryStats recomputes median price, median unit price, average
// rating and product count for category and saves them.
func (s *ProductService) RefreshCategoryStats(ctx context.Context, category string) (*domain.CategoryStatistics, error) {
	products, err := s.products.ByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("load category products: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, category)
	}

	stats := computeCategoryStats(category, products)
	stats.LastUpdated = s.now()
	if err := s.stats.Save(ctx, stats); err != nil {
		return nil, fmt.Errorf("save category stats: %w", err)
	}
	return stats, nil
}

// RefreshAllCategoryStats recomputes statistics for every category and
// returns how many were refreshed.
func (s *ProductService) RefreshAllCategoryStats(ctx context.Context) (int, error) {
	categories, err := s.products.Categories(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}

	refreshed := 0
	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if _, err := s.RefreshCategoryStats(ctx, category); err != nil {
			productLogger.Warn().Err(err).Str("category", category).Msg("category stats refresh failed")
			continue
		}
		refreshed++
	}
	if refreshed > 0 {
		s.invalidate(ctx)
	}
	return refreshed, nil
}

func computeCategoryStats(category string, products []domain.Product) *domain.CategoryStatistics {
	var prices, unitPrices, ratings []decimal.Decimal
	for _, p := range products {
		if p.CurrentPrice != nil && p.CurrentPrice.IsPositive() {
			prices = append(prices, *p.CurrentPrice)
		}
		if p.UnitPrice != nil && p.UnitPrice.IsPositive() {
			unitPrices = append(unitPrices, *p.UnitPrice)
		}
		if p.Rating != nil && p.Rating.IsPositive() {
			ratings = append(ratings, *p.Rating)
		}
	}

	stats := &domain.CategoryStatistics{Category: category, ProductCount: len(products)}
	if m, ok := median(prices); ok {
		m = m.Round(2)
		stats.MedianPrice = &m
	}
	if m, ok := median(unitPrices); ok {
		m = m.Round(4)
		stats.MedianUnitPrice = &m
	}
	if len(ratings) > 0 {
		avg := decimal.Avg(ratings[0], ratings[1:]...).Round(2)
		stats.AvgRating = &avg
	}
	return stats
}

// median of values; the mean of the middle pair for even counts
func median(values []decimal.Decimal) (decimal.Decimal, bool) {
	if len(values) == 0 {
		return decimal.Zero, false
	}
	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], true
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(two), true
}
