package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

const pointColumns = `h.id, h.asin, h.price, h.unit_price, h.is_prime, h.is_sponsored, h.in_stock, h.recorded_at`

// PriceHistoryRepository implements domain.PriceHistoryRepository
type PriceHistoryRepository struct {
	store *Store
}

func scanPoint(row rowScanner, extra ...interface{}) (*domain.PricePoint, error) {
	var (
		p          domain.PricePoint
		unitPrice  decimal.NullDecimal
		recordedAt int64
	)
	dest := append([]interface{}{
		&p.ID, &p.ASIN, &p.Price, &unitPrice, &p.IsPrime, &p.IsSponsored, &p.InStock, &recordedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p.UnitPrice = decimalPtr(unitPrice)
	p.RecordedAt = fromUnix(recordedAt)
	return &p, nil
}

// Latest returns the newest point for asin, or nil when none exists
func (r *PriceHistoryRepository) Latest(ctx context.Context, asin string) (*domain.PricePoint, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+pointColumns+` FROM price_history h
		 WHERE h.asin = ? ORDER BY h.recorded_at DESC, h.id DESC LIMIT 1`, asin)
	p, err := scanPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest price %s: %w", asin, err)
	}
	return p, nil
}

// Append stores a new point and fills in its ID
func (r *PriceHistoryRepository) Append(ctx context.Context, p *domain.PricePoint) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	res, err := r.store.db.ExecContext(ctx,
		`INSERT INTO price_history (asin, price, unit_price, is_prime, is_sponsored, in_stock, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ASIN, p.Price.String(), nullableDecimal(p.UnitPrice), p.IsPrime, p.IsSponsored, p.InStock, toUnix(p.RecordedAt))
	if err != nil {
		return fmt.Errorf("append price %s: %w", p.ASIN, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		p.ID = id
	}
	return nil
}

// Since returns the points for asin recorded at or after since, oldest first
func (r *PriceHistoryRepository) Since(ctx context.Context, asin string, since time.Time) ([]domain.PricePoint, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+pointColumns+` FROM price_history h
		 WHERE h.asin = ? AND h.recorded_at >= ?
		 ORDER BY h.recorded_at, h.id`, asin, toUnix(since))
	if err != nil {
		return nil, fmt.Errorf("price history %s: %w", asin, err)
	}
	defer rows.Close()

	points := make([]domain.PricePoint, 0)
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		points = append(points, *p)
	}
	return points, rows.Err()
}

// SeriesSince groups every point recorded at or after since by product
func (r *PriceHistoryRepository) SeriesSince(ctx context.Context, since time.Time) ([]domain.PriceSeries, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+pointColumns+`, COALESCE(p.title, '') FROM price_history h
		 LEFT JOIN products p ON p.asin = h.asin
		 WHERE h.recorded_at >= ?
		 ORDER BY h.asin, h.recorded_at, h.id`, toUnix(since))
	if err != nil {
		return nil, fmt.Errorf("price series: %w", err)
	}
	defer rows.Close()

	series := make([]domain.PriceSeries, 0)
	for rows.Next() {
		var title string
		p, err := scanPoint(rows, &title)
		if err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		if n := len(series); n == 0 || series[n-1].ASIN != p.ASIN {
			series = append(series, domain.PriceSeries{ASIN: p.ASIN, Title: title})
		}
		last := &series[len(series)-1]
		last.Points = append(last.Points, *p)
	}
	return series, rows.Err()
}
