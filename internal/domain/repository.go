package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are stored serialized; Get decodes into dest.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// ProductRepository defines catalog persistence
type ProductRepository interface {
	Get(ctx context.Context, asin string) (*Product, error)
	List(ctx context.Context, asins []string) ([]Product, error)
	Search(ctx context.Context, text string) ([]Product, error)
	ByCategory(ctx context.Context, category string) ([]Product, error)
	Upsert(ctx context.Context, product *Product) error
	UpdateScores(ctx context.Context, asin string, hiddenGem, dealQuality int) error
	Categories(ctx context.Context) ([]string, error)
	Brands(ctx context.Context, category string) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// PriceHistoryRepository owns the append-only price series of every product.
// Point slices are always ordered oldest first.
type PriceHistoryRepository interface {
	Latest(ctx context.Context, asin string) (*PricePoint, error)
	Append(ctx context.Context, point *PricePoint) error
	Since(ctx context.Context, asin string, since time.Time) ([]PricePoint, error)
	SeriesSince(ctx context.Context, since time.Time) ([]PriceSeries, error)
}

// CategoryStatsRepository persists precomputed category aggregates
type CategoryStatsRepository interface {
	Get(ctx context.Context, category string) (*CategoryStatistics, error)
	Save(ctx context.Context, stats *CategoryStatistics) error
}

// ListingSource fetches search result listings from a retailer
type ListingSource interface {
	Search(ctx context.Context, query string, pages int) ([]Listing, error)
}
