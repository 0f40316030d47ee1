package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// CategoryStatsRepository implements domain.CategoryStatsRepository
type CategoryStatsRepository struct {
	store *Store
}

// Get returns stored statistics; ErrCategoryNotFound when none were saved yet
func (r *CategoryStatsRepository) Get(ctx context.Context, category string) (*domain.CategoryStatistics, error) {
	var (
		stats                        domain.CategoryStatistics
		medianPrice, medianUnit, avg decimal.NullDecimal
		lastUpdated                  int64
	)
	err := r.store.db.QueryRowContext(ctx,
		`SELECT category, median_price, median_unit_price, avg_rating, product_count, last_updated
		 FROM category_stats WHERE category = ?`, category,
	).Scan(&stats.Category, &medianPrice, &medianUnit, &avg, &stats.ProductCount, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCategoryNotFound, category)
	}
	if err != nil {
		return nil, fmt.Errorf("get category stats %s: %w", category, err)
	}

	stats.MedianPrice = decimalPtr(medianPrice)
	stats.MedianUnitPrice = decimalPtr(medianUnit)
	stats.AvgRating = decimalPtr(avg)
	stats.LastUpdated = fromUnix(lastUpdated)
	return &stats, nil
}

// Save inserts or replaces the statistics of one category
func (r *CategoryStatsRepository) Save(ctx context.Context, stats *domain.CategoryStatistics) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO category_stats (category, median_price, median_unit_price, avg_rating, product_count, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(category) DO UPDATE SET
			median_price = excluded.median_price,
			median_unit_price = excluded.median_unit_price,
			avg_rating = excluded.avg_rating,
			product_count = excluded.product_count,
			last_updated = excluded.last_updated`,
		stats.Category, nullableDecimal(stats.MedianPrice), nullableDecimal(stats.MedianUnitPrice),
		nullableDecimal(stats.AvgRating), stats.ProductCount, toUnix(stats.LastUpdated))
	if err != nil {
		return fmt.Errorf("save category stats %s: %w", stats.Category, err)
	}
	return nil
}
