package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dealscope/backend/internal/domain"
)

// MockProductRepository is an in-memory domain.ProductRepository
type MockProductRepository struct {
	mu       sync.Mutex
	products map[string]domain.Product
	getError error
}

func NewMockProductRepository(products ...domain.Product) *MockProductRepository {
	m := &MockProductRepository{products: make(map[string]domain.Product)}
	for _, p := range products {
		m.products[p.ASIN] = p
	}
	return m
}

func (m *MockProductRepository) Get(ctx context.Context, asin string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	p, ok := m.products[asin]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, asin)
	}
	return &p, nil
}

func (m *MockProductRepository) sorted(keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range m.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ASIN < out[j].ASIN })
	return out
}

func (m *MockProductRepository) List(ctx context.Context, asins []string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool)
	for _, a := range asins {
		want[a] = true
	}
	return m.sorted(func(p domain.Product) bool { return want[p.ASIN] }), nil
}

func (m *MockProductRepository) Search(ctx context.Context, text string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text = strings.ToLower(text)
	return m.sorted(func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Title), text) || strings.Contains(strings.ToLower(p.Brand), text)
	}), nil
}

func (m *MockProductRepository) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(p domain.Product) bool { return p.Category == category }), nil
}

func (m *MockProductRepository) Upsert(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ASIN] = *product
	return nil
}

func (m *MockProductRepository) UpdateScores(ctx context.Context, asin string, hiddenGem, dealQuality int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[asin]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.HiddenGemScore = &hiddenGem
	p.DealQualityScore = &dealQuality
	m.products[asin] = p
	return nil
}

func (m *MockProductRepository) distinct(field func(domain.Product) string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range m.products {
		if v := field(p); v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func (m *MockProductRepository) Categories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.distinct(func(p domain.Product) string { return p.Category }), nil
}

func (m *MockProductRepository) Brands(ctx context.Context, category string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.distinct(func(p domain.Product) string {
		if category != "" && p.Category != category {
			return ""
		}
		return p.Brand
	}), nil
}

func (m *MockProductRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

// MockPriceHistoryRepository is an in-memory domain.PriceHistoryRepository
type MockPriceHistoryRepository struct {
	mu          sync.Mutex
	points      []domain.PricePoint
	appendError error
	nextID      int64
}

func NewMockPriceHistoryRepository(points ...domain.PricePoint) *MockPriceHistoryRepository {
	return &MockPriceHistoryRepository{points: points}
}

func (m *MockPriceHistoryRepository) Latest(ctx context.Context, asin string) (*domain.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.PricePoint
	for i := range m.points {
		p := m.points[i]
		if p.ASIN == asin && (latest == nil || !p.RecordedAt.Before(latest.RecordedAt)) {
			latest = &p
		}
	}
	return latest, nil
}

func (m *MockPriceHistoryRepository) Append(ctx context.Context, point *domain.PricePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendError != nil {
		return m.appendError
	}
	m.nextID++
	point.ID = m.nextID
	m.points = append(m.points, *point)
	return nil
}

func (m *MockPriceHistoryRepository) Since(ctx context.Context, asin string, since time.Time) ([]domain.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PricePoint, 0)
	for _, p := range m.points {
		if p.ASIN == asin && !p.RecordedAt.Before(since) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (m *MockPriceHistoryRepository) SeriesSince(ctx context.Context, since time.Time) ([]domain.PriceSeries, error) {
	m.mu.Lock()
	asins := make(map[string]bool)
	for _, p := range m.points {
		asins[p.ASIN] = true
	}
	m.mu.Unlock()

	keys := make([]string, 0, len(asins))
	for a := range asins {
		keys = append(keys, a)
	}
	sort.Strings(keys)

	var series []domain.PriceSeries
	for _, a := range keys {
		points, _ := m.Since(ctx, a, since)
		if len(points) > 0 {
			series = append(series, domain.PriceSeries{ASIN: a, Title: "title " + a, Points: points})
		}
	}
	return series, nil
}

func (m *MockPriceHistoryRepository) count(asin string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.points {
		if p.ASIN == asin {
			n++
		}
	}
	return n
}

// MockCategoryStatsRepository is an in-memory domain.CategoryStatsRepository
type MockCategoryStatsRepository struct {
	mu    sync.Mutex
	stats map[string]domain.CategoryStatistics
	saves int
}

func NewMockCategoryStatsRepository() *MockCategoryStatsRepository {
	return &MockCategoryStatsRepository{stats: make(map[string]domain.CategoryStatistics)}
}

func (m *MockCategoryStatsRepository) Get(ctx context.Context, category string) (*domain.CategoryStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[category]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &s, nil
}

func (m *MockCategoryStatsRepository) Save(ctx context.Context, stats *domain.CategoryStatistics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.stats[stats.Category] = *stats
	return nil
}

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string][]byte
	getCalls int
	setCalls int
	setError error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	payload, ok := m.data[key]
	if !ok {
		return domain.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setError != nil {
		return m.setError
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = payload
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *MockCacheRepository) keys(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}

// MockListingSource returns canned listings
type MockListingSource struct {
	listings []domain.Listing
	err      error
	queries  []string
}

func (m *MockListingSource) Search(ctx context.Context, query string, pages int) ([]domain.Listing, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.listings, nil
}

var errBoom = errors.New("boom")
