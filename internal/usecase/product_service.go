package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dealscope/backend/internal/domain"
	"github.com/dealscope/backend/internal/pkg/logging"
	"github.com/dealscope/backend/internal/pricing"
	"github.com/dealscope/backend/internal/scoring"
	"github.com/shopspring/decimal"
)

const (
	searchCachePrefix  = "search:"
	productCachePrefix = "product:"

	detailHistoryDays = 90
	maxSimilar        = 5
	minCompare        = 2
	maxCompare        = 10

	neutralPerformance = 50
)

var (
	hundred       = decimal.NewFromInt(100)
	similarBand   = decimal.RequireFromString("0.2")
	productLogger = logging.New("products")
)

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	SearchCacheTTL time.Duration
	DetailCacheTTL time.Duration
	ScrapePages    int
}

// ProductService ingests listings and serves catalog queries with caching
type ProductService struct {
	products domain.ProductRepository
	stats    domain.CategoryStatsRepository
	history  *PriceHistoryService
	cache    domain.CacheRepository
	source   domain.ListingSource
	config   ProductServiceConfig
	now      func() time.Time
}

// NewProductService creates a product service. source may be nil when no
// scraper is configured.
func NewProductService(
	products domain.ProductRepository,
	stats domain.CategoryStatsRepository,
	history *PriceHistoryService,
	cache domain.CacheRepository,
	source domain.ListingSource,
	config ProductServiceConfig,
) *ProductService {
	if config.SearchCacheTTL == 0 {
		config.SearchCacheTTL = 15 * time.Minute
	}
	if config.DetailCacheTTL == 0 {
		config.DetailCacheTTL = time.Hour
	}
	if config.ScrapePages <= 0 {
		config.ScrapePages = 1
	}

	return &ProductService{
		products: products,
		stats:    stats,
		history:  history,
		cache:    cache,
		source:   source,
		config:   config,
		now:      time.Now,
	}
}

// ScraperEnabled reports whether Scrape has a listing source to pull from
func (s *ProductService) ScraperEnabled() bool {
	return s.source != nil
}

// Scrape fetches listings for query from the configured source and ingests them
func (s *ProductService) Scrape(ctx context.Context, query string) (domain.IngestResult, error) {
	if s.source == nil {
		return domain.IngestResult{}, domain.ErrScraperDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.IngestResult{}, domain.ErrInvalidRequest
	}

	listings, err := s.source.Search(ctx, query, s.config.ScrapePages)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("%w: %v", domain.ErrScraperFailure, err)
	}
	return s.Ingest(ctx, listings)
}

// Ingest stores a batch of listings in result order: products are upserted,
// prices recorded, category statistics refreshed and scores recomputed.
func (s *ProductService) Ingest(ctx context.Context, listings []domain.Listing) (domain.IngestResult, error) {
	result := domain.IngestResult{Received: len(listings), Categories: []string{}}
	now := s.now()

	type ingested struct {
		product  *domain.Product
		position int
	}
	var batch []ingested
	touched := make(map[string]bool)

	for i, listing := range listings {
		listing.ASIN = strings.TrimSpace(listing.ASIN)
		listing.Title = strings.TrimSpace(listing.Title)
		if listing.ASIN == "" || listing.Title == "" || (listing.Price != nil && listing.Price.IsNegative()) {
			result.Skipped++
			continue
		}

		product, err := s.buildProduct(ctx, listing, now)
		if err != nil {
			return result, err
		}
		if err := s.products.Upsert(ctx, product); err != nil {
			return result, fmt.Errorf("store product: %w", err)
		}

		if product.CurrentPrice != nil {
			_, recorded, err := s.history.Record(ctx, product.ASIN, domain.PriceObservation{
				Price:       *product.CurrentPrice,
				UnitPrice:   product.UnitPrice,
				IsPrime:     product.IsPrime,
				IsSponsored: product.IsSponsored,
				InStock:     product.InStock,
			})
			if err != nil {
				return result, err
			}
			if recorded {
				result.PricesRecorded++
			}
		}

		result.Ingested++
		batch = append(batch, ingested{product: product, position: i + 1})
		if product.Category != "" {
			touched[product.Category] = true
		}
	}

	medians := make(map[string]*decimal.Decimal)
	for category := range touched {
		stats, err := s.RefreshCategoryStats(ctx, category)
		if err != nil {
			return result, err
		}
		medians[category] = stats.MedianUnitPrice
		result.Categories = append(result.Categories, category)
	}
	sort.Strings(result.Categories)

	frequency := sponsoredFrequency(listings)
	for _, item := range batch {
		p := item.product
		gem := scoring.HiddenGem(scoring.HiddenGemInput{
			Rating:                  p.Rating,
			ReviewCount:             p.ReviewCount,
			SearchPosition:          item.position,
			UnitPrice:               p.UnitPrice,
			CategoryMedianUnitPrice: medians[p.Category],
			IsSponsored:             p.IsSponsored,
			SponsoredFrequency:      frequency[strings.ToLower(p.Brand)],
		})
		deal := scoring.DealQuality(scoring.DealQualityInput{
			UnitPrice:               p.UnitPrice,
			CategoryMedianUnitPrice: medians[p.Category],
			DiscountPct:             p.DiscountPct,
			Rating:                  p.Rating,
			ReviewCount:             p.ReviewCount,
			IsPrime:                 p.IsPrime,
		})
		if err := s.products.UpdateScores(ctx, p.ASIN, gem.Value, deal.Value); err != nil {
			return result, fmt.Errorf("store scores: %w", err)
		}
	}

	if len(batch) > 0 {
		s.invalidate(ctx)
	}
	productLogger.Info().
		Int("received", result.Received).
		Int("ingested", result.Ingested).
		Int("prices_recorded", result.PricesRecorded).
		Msg("listings ingested")
	return result, nil
}

// buildProduct merges a listing into the stored product, deriving discount and unit price
func (s *ProductService) buildProduct(ctx context.Context, listing domain.Listing, now time.Time) (*domain.Product, error) {
	product := &domain.Product{CreatedAt: now}
	existing, err := s.products.Get(ctx, listing.ASIN)
	switch {
	case err == nil:
		product.CreatedAt = existing.CreatedAt
		product.HiddenGemScore = existing.HiddenGemScore
		product.DealQualityScore = existing.DealQualityScore
	case !errors.Is(err, domain.ErrProductNotFound):
		return nil, fmt.Errorf("load product: %w", err)
	}

	product.ASIN = listing.ASIN
	product.Title = listing.Title
	product.Brand = strings.TrimSpace(listing.Brand)
	product.Category = strings.TrimSpace(listing.Category)
	product.CurrentPrice = listing.Price
	product.ListPrice = listing.ListPrice
	product.Rating = listing.Rating
	product.ReviewCount = listing.ReviewCount
	product.ImageURL = listing.ImageURL
	product.URL = listing.URL
	product.IsPrime = listing.IsPrime
	product.IsSponsored = listing.IsSponsored
	product.InStock = listing.InStock
	product.SubscribeSavePct = listing.SubscribeSavePct
	product.LastScrapedAt = now
	product.UpdatedAt = now

	if listing.Price != nil && listing.ListPrice != nil && listing.ListPrice.IsPositive() {
		discount := listing.ListPrice.Sub(*listing.Price).Div(*listing.ListPrice).Mul(hundred).Round(2)
		product.DiscountPct = &discount
	}

	if listing.Price != nil {
		if unit, ok := pricing.ExtractAndCalculate(listing.Title, *listing.Price); ok {
			product.UnitPrice = &unit.UnitPrice
			product.UnitType = unit.UnitLabel
			product.UnitQuantity = &unit.OriginalQuantity
		}
	}
	return product, nil
}

// sponsoredFrequency is the share of each brand's listings in a batch that were sponsored
func sponsoredFrequency(listings []domain.Listing) map[string]float64 {
	total := make(map[string]int)
	sponsored := make(map[string]int)
	for _, l := range listings {
		brand := strings.ToLower(strings.TrimSpace(l.Brand))
		total[brand]++
		if l.IsSponsored {
			sponsored[brand]++
		}
	}

	freq := make(map[string]float64, len(total))
	for brand, n := range total {
		freq[brand] = float64(sponsored[brand]) / float64(n)
	}
	return freq
}

// invalidate drops cached search pages and product details after catalog writes
func (s *ProductService) invalidate(ctx context.Context) {
	for _, prefix := range []string{searchCachePrefix, productCachePrefix} {
		if _, err := s.cache.DeletePrefix(ctx, prefix); err != nil {
			productLogger.Warn().Err(err).Str("prefix", prefix).Msg("cache invalidation failed")
		}
	}
}

// Product returns a product with 90 days of history, similar products and its analysis
func (s *ProductService) Product(ctx context.Context, asin string) (*domain.ProductDetail, error) {
	key := productCachePrefix + asin
	var cached domain.ProductDetail
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	product, err := s.products.Get(ctx, asin)
	if err != nil {
		return nil, err
	}

	points, err := s.history.History(ctx, asin, detailHistoryDays)
	if err != nil {
		return nil, err
	}

	similar, err := s.similar(ctx, product)
	if err != nil {
		return nil, err
	}

	now := s.now()
	detail := &domain.ProductDetail{
		Product:               *product,
		PriceHistory:          points,
		SimilarProducts:       similar,
		PricePerformanceScore: neutralPerformance,
	}
	if product.CurrentPrice != nil {
		detail.PricePerformanceScore = scoring.PricePerformance(*product.CurrentPrice, points, detailHistoryDays, now).Value
		if product.ListPrice != nil {
			verdict := scoring.IsTrueDiscount(*product.CurrentPrice, *product.ListPrice, points)
			detail.Discount = &verdict
		}
	}
	best, err := s.history.BestPriceTime(ctx, asin, detailHistoryDays)
	if err != nil {
		return nil, err
	}
	detail.BestPriceTime = best

	if err := s.cache.Set(ctx, key, detail, s.config.DetailCacheTTL); err != nil {
		productLogger.Warn().Err(err).Str("asin", asin).Msg("caching product detail failed")
	}
	return detail, nil
}

// similar lists up to five products of the same category priced within 20%, cheapest unit price first
func (s *ProductService) similar(ctx context.Context, product *domain.Product) ([]domain.Product, error) {
	similar := make([]domain.Product, 0)
	if product.Category == "" || product.CurrentPrice == nil {
		return similar, nil
	}

	candidates, err := s.products.ByCategory(ctx, product.Category)
	if err != nil {
		return nil, fmt.Errorf("load similar products: %w", err)
	}

	band := product.CurrentPrice.Mul(similarBand)
	low, high := product.CurrentPrice.Sub(band), product.CurrentPrice.Add(band)
	for _, c := range candidates {
		if c.ASIN == product.ASIN || c.CurrentPrice == nil {
			continue
		}
		if c.CurrentPrice.LessThan(low) || c.CurrentPrice.GreaterThan(high) {
			continue
		}
		similar = append(similar, c)
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return lessNullsLast(similar[i].UnitPrice, similar[j].UnitPrice, false)
	})
	if len(similar) > maxSimilar {
		similar = similar[:maxSimilar]
	}
	return similar, nil
}

// Compare loads 2 to 10 products and picks the best unit price and rating
func (s *ProductService) Compare(ctx context.Context, asins []string) (*domain.CompareResponse, error) {
	unique := dedupe(asins)
	if len(unique) < minCompare || len(unique) > maxCompare {
		return nil, fmt.Errorf("%w: compare needs %d to %d products", domain.ErrInvalidRequest, minCompare, maxCompare)
	}

	products, err := s.products.List(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrProductNotFound
	}

	resp := &domain.CompareResponse{Products: products}
	var bestUnit, bestRating *domain.Product
	for i := range products {
		p := &products[i]
		if p.UnitPrice != nil && (bestUnit == nil || p.UnitPrice.LessThan(*bestUnit.UnitPrice)) {
			bestUnit = p
		}
		if p.Rating != nil && (bestRating == nil || p.Rating.GreaterThan(*bestRating.Rating)) {
			bestRating = p
		}
	}
	if bestUnit != nil {
		resp.BestUnitPriceASIN = bestUnit.ASIN
		resp.BestValueASIN = bestUnit.ASIN
	}
	if bestRating != nil {
		resp.BestRatingASIN = bestRating.ASIN
	}
	return resp, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Categories lists every known category
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	return s.products.Categories(ctx)
}

// Brands lists every known brand, optionally within one category
func (s *ProductService) Brands(ctx context.Context, category string) ([]string, error) {
	return s.products.Brands(ctx, strings.TrimSpace(category))
}
