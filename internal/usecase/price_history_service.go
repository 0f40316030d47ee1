package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dealscope/backend/internal/domain"
	"github.com/dealscope/backend/internal/history"
	"github.com/dealscope/backend/internal/pkg/logging"
	"github.com/shopspring/decimal"
)

// DefaultHistoryDays is the lookback used when a history request gives none
const DefaultHistoryDays = 30

var historyLogger = logging.New("price_history")

// PriceHistoryService records observed prices and answers history questions
type PriceHistoryService struct {
	products domain.ProductRepository
	history  domain.PriceHistoryRepository
	now      func() time.Time

	// recordMu serializes the read-decide-append sequence of Record
	recordMu sync.Mutex
}

// NewPriceHistoryService creates a price history service over the given repositories
func NewPriceHistoryService(products domain.ProductRepository, history domain.PriceHistoryRepository) *PriceHistoryService {
	return &PriceHistoryService{
		products: products,
		history:  history,
		now:      time.Now,
	}
}

// Record appends an observation unless it duplicates the latest point.
// It returns the stored point (new or existing) and whether a point was added.
func (s *PriceHistoryService) Record(ctx context.Context, asin string, obs domain.PriceObservation) (*domain.PricePoint, bool, error) {
	if asin == "" || obs.Price.IsNegative() {
		return nil, false, domain.ErrInvalidRequest
	}

	s.recordMu.Lock()
	defer s.recordMu.Unlock()

	last, err := s.history.Latest(ctx, asin)
	if err != nil {
		return nil, false, fmt.Errorf("load latest price: %w", err)
	}

	now := s.now()
	if !history.ShouldRecord(last, obs.Price, now) {
		historyLogger.Debug().Str("asin", asin).Msg("skipping price record, no significant change")
		return last, false, nil
	}

	point := &domain.PricePoint{
		ASIN:        asin,
		Price:       obs.Price,
		UnitPrice:   obs.UnitPrice,
		IsPrime:     obs.IsPrime,
		IsSponsored: obs.IsSponsored,
		InStock:     obs.InStock,
		RecordedAt:  now,
	}
	if err := s.history.Append(ctx, point); err != nil {
		return nil, false, fmt.Errorf("append price: %w", err)
	}

	historyLogger.Info().Str("asin", asin).Str("price", obs.Price.String()).Msg("recorded price")
	return point, true, nil
}

// History returns the points of the last days, oldest first
func (s *PriceHistoryService) History(ctx context.Context, asin string, days int) ([]domain.PricePoint, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	return s.window(ctx, asin, days)
}

// Statistics summarizes the last days of an existing product's history
func (s *PriceHistoryService) Statistics(ctx context.Context, asin string, days int) (domain.PriceStatistics, error) {
	if days <= 0 {
		days = history.DefaultStatisticsDays
	}
	points, err := s.window(ctx, asin, days)
	if err != nil {
		return domain.PriceStatistics{}, err
	}
	return history.Statistics(points, s.now(), days), nil
}

// BestPriceTime reports the cheapest moment of the last days and a buying recommendation
func (s *PriceHistoryService) BestPriceTime(ctx context.Context, asin string, days int) (domain.BestPriceTime, error) {
	if days <= 0 {
		days = history.DefaultBestTimeDays
	}
	points, err := s.window(ctx, asin, days)
	if err != nil {
		return domain.BestPriceTime{}, err
	}
	return history.BestPriceTime(points, s.now(), days), nil
}

// DropAlerts finds products whose price fell at least minDropPct within the last hours
func (s *PriceHistoryService) DropAlerts(ctx context.Context, minDropPct float64, hours int) ([]domain.DropAlert, error) {
	if !isFinite(minDropPct) || minDropPct <= 0 || hours <= 0 {
		return nil, domain.ErrInvalidRequest
	}
	now := s.now()
	series, err := s.history.SeriesSince(ctx, now.Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("load price series: %w", err)
	}
	return history.DropAlerts(series, decimal.NewFromFloat(minDropPct), hours, now), nil
}

// window loads the points of the last days after checking the product exists
func (s *PriceHistoryService) window(ctx context.Context, asin string, days int) ([]domain.PricePoint, error) {
	if _, err := s.products.Get(ctx, asin); err != nil {
		return nil, err
	}
	points, err := s.history.Since(ctx, asin, s.now().Add(-time.Duration(days)*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	return points, nil
}
