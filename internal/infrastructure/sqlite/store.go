// Package sqlite persists products, price history and category statistics
// in a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dealscope/backend/internal/pkg/logging"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var logger = logging.New("sqlite")

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Store owns the database handle shared by the repositories
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the database at path and runs migrations
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if path != MemoryPath {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", path).Msg("sqlite store opened")
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Products returns the product repository backed by this store
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{store: s}
}

// PriceHistory returns the price history repository backed by this store
func (s *Store) PriceHistory() *PriceHistoryRepository {
	return &PriceHistoryRepository{store: s}
}

// CategoryStats returns the category statistics repository backed by this store
func (s *Store) CategoryStats() *CategoryStatsRepository {
	return &CategoryStatsRepository{store: s}
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			asin               TEXT PRIMARY KEY,
			title              TEXT NOT NULL,
			brand              TEXT NOT NULL DEFAULT '',
			category           TEXT NOT NULL DEFAULT '',
			current_price      TEXT,
			list_price         TEXT,
			unit_price         TEXT,
			unit_type          TEXT NOT NULL DEFAULT '',
			unit_quantity      TEXT,
			discount_pct       TEXT,
			rating             TEXT,
			review_count       INTEGER NOT NULL DEFAULT 0,
			image_url          TEXT NOT NULL DEFAULT '',
			url                TEXT NOT NULL DEFAULT '',
			is_prime           INTEGER NOT NULL DEFAULT 0,
			is_sponsored       INTEGER NOT NULL DEFAULT 0,
			in_stock           INTEGER NOT NULL DEFAULT 1,
			subscribe_save_pct TEXT,
			hidden_gem_score   INTEGER,
			deal_quality_score INTEGER,
			last_scraped_at    INTEGER NOT NULL,
			created_at         INTEGER NOT NULL,
			updated_at         INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category)`,
		`CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand)`,

		`CREATE TABLE IF NOT EXISTS price_history (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			asin         TEXT NOT NULL,
			price        TEXT NOT NULL,
			unit_price   TEXT,
			is_prime     INTEGER NOT NULL DEFAULT 0,
			is_sponsored INTEGER NOT NULL DEFAULT 0,
			in_stock     INTEGER NOT NULL DEFAULT 1,
			recorded_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_asin_ts ON price_history(asin, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_ts ON price_history(recorded_at)`,

		`CREATE TABLE IF NOT EXISTS category_stats (
			category          TEXT PRIMARY KEY,
			median_price      TEXT,
			median_unit_price TEXT,
			avg_rating        TEXT,
			product_count     INTEGER NOT NULL DEFAULT 0,
			last_updated      INTEGER NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", strings.TrimSpace(stmt)[:40], err)
		}
	}
	return nil
}

// decimals are stored as TEXT so no precision is lost
func nullableDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func decimalPtr(nd decimal.NullDecimal) *decimal.Decimal {
	if !nd.Valid {
		return nil
	}
	d := nd.Decimal
	return &d
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// timestamps are stored as unix nanoseconds
func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
