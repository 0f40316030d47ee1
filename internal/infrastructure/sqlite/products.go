package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

const productColumns = `asin, title, brand, category, current_price, list_price, unit_price,
	unit_type, unit_quantity, discount_pct, rating, review_count, image_url, url,
	is_prime, is_sponsored, in_stock, subscribe_save_pct, hidden_gem_score,
	deal_quality_score, last_scraped_at, created_at, updated_at`

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	store *Store
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                                                   domain.Product
		current, list, unit, quantity, discount, rating, ss decimal.NullDecimal
		hiddenGem, dealQuality                              sql.NullInt64
		scrapedAt, createdAt, updatedAt                     int64
	)
	err := row.Scan(
		&p.ASIN, &p.Title, &p.Brand, &p.Category, &current, &list, &unit,
		&p.UnitType, &quantity, &discount, &rating, &p.ReviewCount, &p.ImageURL, &p.URL,
		&p.IsPrime, &p.IsSponsored, &p.InStock, &ss, &hiddenGem,
		&dealQuality, &scrapedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.CurrentPrice = decimalPtr(current)
	p.ListPrice = decimalPtr(list)
	p.UnitPrice = decimalPtr(unit)
	p.UnitQuantity = decimalPtr(quantity)
	p.DiscountPct = decimalPtr(discount)
	p.Rating = decimalPtr(rating)
	p.SubscribeSavePct = decimalPtr(ss)
	p.HiddenGemScore = intPtr(hiddenGem)
	p.DealQualityScore = intPtr(dealQuality)
	p.LastScrapedAt = fromUnix(scrapedAt)
	p.CreatedAt = fromUnix(createdAt)
	p.UpdatedAt = fromUnix(updatedAt)
	return &p, nil
}

func (r *ProductRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// Get returns the product with the given ASIN
func (r *ProductRepository) Get(ctx context.Context, asin string) (*domain.Product, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE asin = ?`, asin)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, asin)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", asin, err)
	}
	return p, nil
}

// List returns the products matching asins; unknown ASINs are ignored
func (r *ProductRepository) List(ctx context.Context, asins []string) ([]domain.Product, error) {
	if len(asins) == 0 {
		return []domain.Product{}, nil
	}
	args := make([]interface{}, len(asins))
	for i, a := range asins {
		args[i] = a
	}
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE asin IN (`+placeholders(len(asins))+`) ORDER BY asin`, args...)
}

// Search matches text against title and brand, case-insensitively
func (r *ProductRepository) Search(ctx context.Context, text string) ([]domain.Product, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(text)) + "%"
	return r.query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE title LIKE ? ESCAPE '\' OR brand LIKE ? ESCAPE '\'
		 ORDER BY asin`,
		pattern, pattern)
}

// ByCategory returns every product in category
func (r *ProductRepository) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE category = ? ORDER BY asin`, category)
}

// Upsert inserts the product or refreshes every mutable column of an existing one
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asin) DO UPDATE SET
			title = excluded.title,
			brand = excluded.brand,
			category = excluded.category,
			current_price = excluded.current_price,
			list_price = excluded.list_price,
			unit_price = excluded.unit_price,
			unit_type = excluded.unit_type,
			unit_quantity = excluded.unit_quantity,
			discount_pct = excluded.discount_pct,
			rating = excluded.rating,
			review_count = excluded.review_count,
			image_url = excluded.image_url,
			url = excluded.url,
			is_prime = excluded.is_prime,
			is_sponsored = excluded.is_sponsored,
			in_stock = excluded.in_stock,
			subscribe_save_pct = excluded.subscribe_save_pct,
			hidden_gem_score = COALESCE(excluded.hidden_gem_score, products.hidden_gem_score),
			deal_quality_score = COALESCE(excluded.deal_quality_score, products.deal_quality_score),
			last_scraped_at = excluded.last_scraped_at,
			updated_at = excluded.updated_at`,
		p.ASIN, p.Title, p.Brand, p.Category,
		nullableDecimal(p.CurrentPrice), nullableDecimal(p.ListPrice), nullableDecimal(p.UnitPrice),
		p.UnitType, nullableDecimal(p.UnitQuantity), nullableDecimal(p.DiscountPct), nullableDecimal(p.Rating),
		p.ReviewCount, p.ImageURL, p.URL, p.IsPrime, p.IsSponsored, p.InStock,
		nullableDecimal(p.SubscribeSavePct), nullableInt(p.HiddenGemScore), nullableInt(p.DealQualityScore),
		toUnix(p.LastScrapedAt), toUnix(p.CreatedAt), toUnix(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ASIN, err)
	}
	return nil
}

// UpdateScores stores freshly computed scores for a product
func (r *ProductRepository) UpdateScores(ctx context.Context, asin string, hiddenGem, dealQuality int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res, err := r.store.db.ExecContext(ctx,
		`UPDATE products SET hidden_gem_score = ?, deal_quality_score = ? WHERE asin = ?`,
		hiddenGem, dealQuality, asin)
	if err != nil {
		return fmt.Errorf("update scores %s: %w", asin, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, asin)
	}
	return nil
}

// Categories lists every non-empty category, sorted
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT DISTINCT category FROM products WHERE category != '' ORDER BY category`)
}

// Brands lists every non-empty brand, sorted, optionally limited to one category
func (r *ProductRepository) Brands(ctx context.Context, category string) ([]string, error) {
	if category == "" {
		return r.queryStrings(ctx, `SELECT DISTINCT brand FROM products WHERE brand != '' ORDER BY brand`)
	}
	return r.queryStrings(ctx, `SELECT DISTINCT brand FROM products WHERE brand != '' AND category = ? ORDER BY brand`, category)
}

// Count returns the number of stored products
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *ProductRepository) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
