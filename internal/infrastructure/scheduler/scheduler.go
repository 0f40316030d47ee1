// Package scheduler runs the periodic maintenance jobs: the price drop scan
// and the category statistics refresh.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/dealscope/backend/internal/domain"
	"github.com/dealscope/backend/internal/pkg/logging"
	"github.com/robfig/cron/v3"
)

var logger = logging.New("scheduler")

const jobTimeout = 5 * time.Minute

// DropScanner finds recent price drops
type DropScanner interface {
	DropAlerts(ctx context.Context, minDropPct float64, hours int) ([]domain.DropAlert, error)
}

// StatsRefresher recomputes aggregates for every category
type StatsRefresher interface {
	RefreshAllCategoryStats(ctx context.Context) (int, error)
}

// Config holds the cron expressions (seconds field first) and drop scan thresholds
type Config struct {
	DropAlertCron     string
	CategoryStatsCron string
	DropAlertMinPct   float64
	DropAlertHours    int
}

// Scheduler manages the cron jobs
type Scheduler struct {
	cron    *cron.Cron
	drops   DropScanner
	stats   StatsRefresher
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	onAlert func(domain.DropAlert)
}

// New creates a scheduler and registers its jobs
func New(drops DropScanner, stats StatsRefresher, config Config) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		drops:   drops,
		stats:   stats,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		onAlert: logAlert,
	}

	if _, err := s.cron.AddFunc(config.DropAlertCron, s.RunDropScan); err != nil {
		cancel()
		return nil, fmt.Errorf("register drop alert job: %w", err)
	}
	if _, err := s.cron.AddFunc(config.CategoryStatsCron, s.RunStatsRefresh); err != nil {
		cancel()
		return nil, fmt.Errorf("register category stats job: %w", err)
	}
	return s, nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	logger.Info().Msg("scheduler stopped")
}

// RunDropScan reports every product whose price fell by the configured share
func (s *Scheduler) RunDropScan() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	alerts, err := s.drops.DropAlerts(ctx, s.config.DropAlertMinPct, s.config.DropAlertHours)
	if err != nil {
		logger.Error().Err(err).Msg("drop alert scan failed")
		return
	}
	for _, a := range alerts {
		s.onAlert(a)
	}
	logger.Info().Int("alerts", len(alerts)).Msg("drop alert scan finished")
}

// RunStatsRefresh recomputes statistics for all categories
func (s *Scheduler) RunStatsRefresh() {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	n, err := s.stats.RefreshAllCategoryStats(ctx)
	if err != nil {
		logger.Error().Err(err).Int("refreshed", n).Msg("category stats refresh failed")
		return
	}
	logger.Info().Int("categories", n).Msg("category stats refreshed")
}

func logAlert(a domain.DropAlert) {
	logger.Info().
		Str("asin", a.ASIN).
		Str("title", a.Title).
		Str("old_price", a.OldPrice.StringFixed(2)).
		Str("new_price", a.NewPrice.StringFixed(2)).
		Str("drop_pct", a.DropPct.StringFixed(2)).
		Str("savings", a.Savings.StringFixed(2)).
		Msg("price drop")
}
