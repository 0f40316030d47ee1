// Package seed loads a YAML catalog of listings into an empty store.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dealscope/backend/internal/domain"
	"github.com/dealscope/backend/internal/pkg/logging"
	"gopkg.in/yaml.v3"
)

var logger = logging.New("seed")

// File is the on-disk seed document
type File struct {
	Listings []domain.Listing `yaml:"listings"`
}

// Counter reports how many products are stored
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Ingester stores a batch of listings
type Ingester interface {
	Ingest(ctx context.Context, listings []domain.Listing) (domain.IngestResult, error)
}

// Load reads and validates a seed file. Every listing needs an asin and title.
func Load(path string) ([]domain.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document
func Parse(data []byte) ([]domain.Listing, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	for i, l := range f.Listings {
		if strings.TrimSpace(l.ASIN) == "" || strings.TrimSpace(l.Title) == "" {
			return nil, fmt.Errorf("%w: seed listing %d needs asin and title", domain.ErrInvalidRequest, i+1)
		}
	}
	return f.Listings, nil
}

// Run ingests the seed file when the catalog is empty. It reports whether
// anything was loaded.
func Run(ctx context.Context, path string, products Counter, ingester Ingester) (bool, error) {
	if path == "" {
		return false, nil
	}

	n, err := products.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		logger.Info().Int("products", n).Msg("catalog not empty, skipping seed")
		return false, nil
	}

	listings, err := Load(path)
	if err != nil {
		return false, err
	}

	result, err := ingester.Ingest(ctx, listings)
	if err != nil {
		return false, fmt.Errorf("ingest seed listings: %w", err)
	}

	logger.Info().
		Str("path", path).
		Int("ingested", result.Ingested).
		Int("skipped", result.Skipped).
		Msg("seed loaded")
	return true, nil
}
