package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	defaultSearchLimit = 48
	maxSearchLimit     = 100
	maxSearchPage      = 10000
)

var sortKeys = map[string]func(a, b *domain.Product) bool{
	domain.SortUnitPriceAsc:  func(a, b *domain.Product) bool { return lessNullsLast(a.UnitPrice, b.UnitPrice, false) },
	domain.SortUnitPriceDesc: func(a, b *domain.Product) bool { return lessNullsLast(a.UnitPrice, b.UnitPrice, true) },
	domain.SortPriceAsc:      func(a, b *domain.Product) bool { return lessNullsLast(a.CurrentPrice, b.CurrentPrice, false) },
	domain.SortPriceDesc:     func(a, b *domain.Product) bool { return lessNullsLast(a.CurrentPrice, b.CurrentPrice, true) },
	domain.SortDiscountDesc:  func(a, b *domain.Product) bool { return lessNullsLast(a.DiscountPct, b.DiscountPct, true) },
	domain.SortRatingDesc:    func(a, b *domain.Product) bool { return lessNullsLast(a.Rating, b.Rating, true) },
	domain.SortReviewCountDesc: func(a, b *domain.Product) bool {
		return a.ReviewCount > b.ReviewCount
	},
	domain.SortHiddenGemDesc: func(a, b *domain.Product) bool {
		switch {
		case a.HiddenGemScore == nil:
			return false
		case b.HiddenGemScore == nil:
			return true
		}
		return *a.HiddenGemScore > *b.HiddenGemScore
	},
}

// lessNullsLast orders decimals ascending (or descending) with absent values last
func lessNullsLast(a, b *decimal.Decimal, desc bool) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	case desc:
		return a.GreaterThan(*b)
	}
	return a.LessThan(*b)
}

// normalizeQuery validates a search query and fills in defaults
func normalizeQuery(q domain.SearchQuery) (domain.SearchQuery, error) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return q, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}

	if q.Sort == "" {
		q.Sort = domain.SortUnitPriceAsc
	}
	if _, ok := sortKeys[q.Sort]; !ok {
		return q, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidRequest, q.Sort)
	}

	for name, v := range map[string]*float64{
		"min_price":      q.MinPrice,
		"max_price":      q.MaxPrice,
		"min_unit_price": q.MinUnitPrice,
		"max_unit_price": q.MaxUnitPrice,
		"min_rating":     q.MinRating,
		"min_discount":   q.MinDiscount,
	} {
		if v != nil && !isFinite(*v) {
			return q, fmt.Errorf("%w: %s must be a finite number", domain.ErrInvalidRequest, name)
		}
	}
	if q.MinRating != nil && (*q.MinRating < 0 || *q.MinRating > 5) {
		return q, fmt.Errorf("%w: min_rating must be between 0 and 5", domain.ErrInvalidRequest)
	}
	if q.MinDiscount != nil && (*q.MinDiscount < 0 || *q.MinDiscount > 100) {
		return q, fmt.Errorf("%w: min_discount must be between 0 and 100", domain.ErrInvalidRequest)
	}

	if q.Page == 0 {
		q.Page = 1
	}
	if q.Page < 1 {
		return q, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidRequest)
	}
	if q.Limit == 0 {
		q.Limit = defaultSearchLimit
	}
	if q.Limit < 1 || q.Limit > maxSearchLimit {
		return q, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidRequest, maxSearchLimit)
	}
	if q.Page > maxSearchPage {
		return q, fmt.Errorf("%w: page must be at most %d", domain.ErrInvalidRequest, maxSearchPage)
	}

	if q.HideSponsored == nil {
		hide := true
		q.HideSponsored = &hide
	}
	q.Brands = sortedCopy(q.Brands)
	q.ExcludeBrands = sortedCopy(q.ExcludeBrands)
	return q, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sortedCopy(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

// searchCacheKey hashes the normalized query so equivalent searches share an entry
func searchCacheKey(q domain.SearchQuery) string {
	q.Query = strings.ToLower(q.Query)
	payload, _ := json.Marshal(q)
	sum := sha256.Sum256(payload)
	return searchCachePrefix + hex.EncodeToString(sum[:])
}

// Search matches the query text against titles and brands, filters, sorts
// and paginates. Pages are cached for the search TTL.
func (s *ProductService) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResponse, error) {
	q, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}

	key := searchCacheKey(q)
	var cached domain.SearchResponse
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	terms := searchTerms(q.Query)
	needle := q.Query
	if len(terms) > 0 {
		needle = anchorTerm(terms)
	}
	candidates, err := s.products.Search(ctx, needle)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	sponsored := 0
	matches := make([]domain.Product, 0, len(candidates))
	for _, p := range candidates {
		if !matchesTerms(&p, terms) {
			continue
		}
		if p.IsSponsored {
			sponsored++
		}
		if matchesFilters(&p, q) {
			matches = append(matches, p)
		}
	}

	less := sortKeys[q.Sort]
	sort.SliceStable(matches, func(i, j int) bool { return less(&matches[i], &matches[j]) })

	total := len(matches)
	start := min((q.Page-1)*q.Limit, total)
	end := start + q.Limit
	if end > total {
		end = total
	}
	page := matches[start:end]

	results := s.withCategoryComparison(ctx, page)

	resp := &domain.SearchResponse{
		Results: results,
		Total:   total,
		Page:    q.Page,
		Pages:   (total + q.Limit - 1) / q.Limit,
		Query:   q.Query,
	}
	if *q.HideSponsored {
		resp.SponsoredHidden = sponsored
	}

	if err := s.cache.Set(ctx, key, resp, s.config.SearchCacheTTL); err != nil {
		productLogger.Warn().Err(err).Msg("caching search results failed")
	}
	return resp, nil
}

func matchesFilters(p *domain.Product, q domain.SearchQuery) bool {
	if *q.HideSponsored && p.IsSponsored {
		return false
	}
	if !withinBounds(p.CurrentPrice, q.MinPrice, q.MaxPrice) {
		return false
	}
	if !withinBounds(p.UnitPrice, q.MinUnitPrice, q.MaxUnitPrice) {
		return false
	}
	if !withinBounds(p.Rating, q.MinRating, nil) {
		return false
	}
	if !withinBounds(p.DiscountPct, q.MinDiscount, nil) {
		return false
	}
	if q.MinReviewCount != nil && p.ReviewCount < *q.MinReviewCount {
		return false
	}
	if q.PrimeOnly && !p.IsPrime {
		return false
	}
	if q.InStockOnly && !p.InStock {
		return false
	}
	if len(q.Brands) > 0 && !containsFold(q.Brands, p.Brand) {
		return false
	}
	if len(q.ExcludeBrands) > 0 && containsFold(q.ExcludeBrands, p.Brand) {
		return false
	}
	return true
}

// withinBounds fails any bounded filter when the value is absent
func withinBounds(v *decimal.Decimal, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}
	if v == nil {
		return false
	}
	if min != nil && v.LessThan(decimal.NewFromFloat(*min)) {
		return false
	}
	if max != nil && v.GreaterThan(decimal.NewFromFloat(*max)) {
		return false
	}
	return true
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

// withCategoryComparison adds savings against the category median unit price
// and marks the products sharing the page's best unit price
func (s *ProductService) withCategoryComparison(ctx context.Context, page []domain.Product) []domain.ProductResult {
	medians := make(map[string]*decimal.Decimal)
	for _, p := range page {
		if p.Category == "" {
			continue
		}
		if _, seen := medians[p.Category]; seen {
			continue
		}
		stats, err := s.stats.Get(ctx, p.Category)
		if err != nil {
			productLogger.Debug().Err(err).Str("category", p.Category).Msg("no category stats for comparison")
			medians[p.Category] = nil
			continue
		}
		medians[p.Category] = stats.MedianUnitPrice
	}

	results := make([]domain.ProductResult, len(page))
	if len(page) == 0 {
		return results
	}
	best := page[0].UnitPrice
	for i, p := range page {
		results[i] = domain.ProductResult{Product: p}
		if median := medians[p.Category]; median != nil && median.IsPositive() && p.UnitPrice != nil {
			savings := median.Sub(*p.UnitPrice).Div(*median).Mul(hundred).Round(2)
			results[i].SavingsVsCategory = &savings
		}
		results[i].IsBestValue = (best == nil && p.UnitPrice == nil) ||
			(best != nil && p.UnitPrice != nil && p.UnitPrice.Equal(*best))
	}
	return results
}
