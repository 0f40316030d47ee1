package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func dp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func product(asin, title, brand, category, price string) *domain.Product {
	return &domain.Product{
		ASIN:          asin,
		Title:         title,
		Brand:         brand,
		Category:      category,
		CurrentPrice:  dp(price),
		InStock:       true,
		LastScrapedAt: base,
		CreatedAt:     base,
		UpdatedAt:     base,
	}
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deals.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())

	// reopening runs migrations against existing tables
	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestProductRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := openTest(t).Products()

	p := product("B000QSNYGI", "Gold Standard Whey, 5 lb", "Optimum Nutrition", "protein", "54.99")
	p.ListPrice = dp("69.99")
	p.UnitPrice = dp("0.6874")
	p.UnitType = "oz"
	p.UnitQuantity = dp("80")
	p.Rating = dp("4.7")
	p.ReviewCount = 5000
	p.IsPrime = true
	require.NoError(t, repo.Upsert(ctx, p))

	got, err := repo.Get(ctx, "B000QSNYGI")
	require.NoError(t, err)
	assert.Equal(t, "Gold Standard Whey, 5 lb", got.Title)
	assert.True(t, got.UnitPrice.Equal(decimal.RequireFromString("0.6874")))
	assert.True(t, got.ListPrice.Equal(decimal.RequireFromString("69.99")))
	assert.Equal(t, "oz", got.UnitType)
	assert.Equal(t, 5000, got.ReviewCount)
	assert.True(t, got.IsPrime)
	assert.False(t, got.IsSponsored)
	assert.True(t, got.InStock)
	assert.Nil(t, got.DiscountPct)
	assert.Nil(t, got.HiddenGemScore)
	assert.Equal(t, base, got.CreatedAt)

	// update keeps created_at and previously computed scores
	require.NoError(t, repo.UpdateScores(ctx, "B000QSNYGI", 72, 64))
	updated := product("B000QSNYGI", "Gold Standard Whey, 5 lb", "Optimum Nutrition", "protein", "49.99")
	updated.CreatedAt = base.Add(time.Hour)
	updated.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, updated))

	got, err = repo.Get(ctx, "B000QSNYGI")
	require.NoError(t, err)
	assert.True(t, got.CurrentPrice.Equal(decimal.RequireFromString("49.99")))
	assert.Equal(t, base, got.CreatedAt)
	assert.Equal(t, base.Add(time.Hour), got.UpdatedAt)
	require.NotNil(t, got.HiddenGemScore)
	assert.Equal(t, 72, *got.HiddenGemScore)
	assert.Equal(t, 64, *got.DealQualityScore)
}

func TestProductRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := openTest(t).Products()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	err = repo.UpdateScores(ctx, "missing", 1, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestProductRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := openTest(t).Products()

	for _, p := range []*domain.Product{
		product("A1", "Whey Protein Vanilla", "Optimum Nutrition", "protein", "54.99"),
		product("A2", "Plant Protein 100%", "Orgain", "protein", "29.99"),
		product("A3", "Vitamin C 1000mg 100 Count", "Nature Made", "vitamins", "19.99"),
		product("A4", "Paper Towels", "", "", "12.00"),
	} {
		require.NoError(t, repo.Upsert(ctx, p))
	}

	t.Run("search matches title and brand case-insensitively", func(t *testing.T) {
		got, err := repo.Search(ctx, "PROTEIN")
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = repo.Search(ctx, "nature")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "A3", got[0].ASIN)
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		got, err := repo.Search(ctx, "100%")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "A2", got[0].ASIN)
	})

	t.Run("list ignores unknown asins", func(t *testing.T) {
		got, err := repo.List(ctx, []string{"A3", "A1", "nope"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "A1", got[0].ASIN)

		got, err = repo.List(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("by category", func(t *testing.T) {
		got, err := repo.ByCategory(ctx, "protein")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("categories and brands", func(t *testing.T) {
		categories, err := repo.Categories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"protein", "vitamins"}, categories)

		brands, err := repo.Brands(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Nature Made", "Optimum Nutrition", "Orgain"}, brands)

		brands, err = repo.Brands(ctx, "protein")
		require.NoError(t, err)
		assert.Equal(t, []string{"Optimum Nutrition", "Orgain"}, brands)
	})

	t.Run("count", func(t *testing.T) {
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})
}

func TestPriceHistoryRepository(t *testing.T) {
	ctx := context.Background()
	store := openTest(t)
	products := store.Products()
	repo := store.PriceHistory()

	require.NoError(t, products.Upsert(ctx, product("A1", "Whey", "ON", "protein", "50")))
	require.NoError(t, products.Upsert(ctx, product("A2", "Towels", "", "", "12")))

	latest, err := repo.Latest(ctx, "A1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	points := []domain.PricePoint{
		{ASIN: "A1", Price: decimal.RequireFromString("50.00"), InStock: true, RecordedAt: base.Add(-72 * time.Hour)},
		{ASIN: "A1", Price: decimal.RequireFromString("45.00"), UnitPrice: dp("0.5625"), IsPrime: true, InStock: true, RecordedAt: base.Add(-2 * time.Hour)},
		{ASIN: "A2", Price: decimal.RequireFromString("12.00"), IsSponsored: true, RecordedAt: base.Add(-time.Hour)},
	}
	for i := range points {
		require.NoError(t, repo.Append(ctx, &points[i]))
		assert.NotZero(t, points[i].ID)
	}

	latest, err = repo.Latest(ctx, "A1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Price.Equal(decimal.RequireFromString("45")))
	require.NotNil(t, latest.UnitPrice)
	assert.Equal(t, "0.5625", latest.UnitPrice.String())
	assert.True(t, latest.IsPrime)
	assert.Equal(t, base.Add(-2*time.Hour), latest.RecordedAt)

	since, err := repo.Since(ctx, "A1", base.Add(-100*time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.True(t, since[0].RecordedAt.Before(since[1].RecordedAt))

	since, err = repo.Since(ctx, "A1", base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, since, 1)

	series, err := repo.SeriesSince(ctx, base.Add(-100*time.Hour))
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "A1", series[0].ASIN)
	assert.Equal(t, "Whey", series[0].Title)
	assert.Len(t, series[0].Points, 2)
	assert.Equal(t, "Towels", series[1].Title)
	assert.True(t, series[1].Points[0].IsSponsored)
	assert.False(t, series[1].Points[0].InStock)
}

func TestCategoryStatsRepository(t *testing.T) {
	ctx := context.Background()
	repo := openTest(t).CategoryStats()

	_, err := repo.Get(ctx, "protein")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	stats := &domain.CategoryStatistics{
		Category:        "protein",
		MedianPrice:     dp("42.49"),
		MedianUnitPrice: dp("0.85"),
		ProductCount:    2,
		LastUpdated:     base,
	}
	require.NoError(t, repo.Save(ctx, stats))

	got, err := repo.Get(ctx, "protein")
	require.NoError(t, err)
	assert.True(t, got.MedianUnitPrice.Equal(decimal.RequireFromString("0.85")))
	assert.Nil(t, got.AvgRating)
	assert.Equal(t, 2, got.ProductCount)
	assert.Equal(t, base, got.LastUpdated)

	stats.ProductCount = 3
	stats.AvgRating = dp("4.5")
	require.NoError(t, repo.Save(ctx, stats))

	got, err = repo.Get(ctx, "protein")
	require.NoError(t, err)
	assert.Equal(t, 3, got.ProductCount)
	require.NotNil(t, got.AvgRating)
	assert.Equal(t, "4.5", got.AvgRating.String())
}
