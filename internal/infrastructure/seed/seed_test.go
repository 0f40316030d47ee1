package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dealscope/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
listings:
  - asin: B001
    title: Whey Protein 5 lb
    brand: Acme
    category: protein
    price: 54.99
    list_price: "69.99"
    rating: 4.6
    review_count: 120
    is_prime: true
    in_stock: true
    subscribe_save_pct: 15
  - asin: B002
    title: Vitamin D 250 count
    is_sponsored: true
`

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Count(ctx context.Context) (int, error) { return f.n, f.err }

type fakeIngester struct {
	got []domain.Listing
	err error
}

func (f *fakeIngester) Ingest(ctx context.Context, listings []domain.Listing) (domain.IngestResult, error) {
	f.got = listings
	return domain.IngestResult{Received: len(listings), Ingested: len(listings)}, f.err
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	listings, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, listings, 2)

	whey := listings[0]
	assert.Equal(t, "B001", whey.ASIN)
	assert.Equal(t, "Acme", whey.Brand)
	assert.Equal(t, "protein", whey.Category)
	require.NotNil(t, whey.Price)
	assert.Equal(t, "54.99", whey.Price.String())
	require.NotNil(t, whey.ListPrice)
	assert.Equal(t, "69.99", whey.ListPrice.String())
	require.NotNil(t, whey.Rating)
	assert.Equal(t, "4.6", whey.Rating.String())
	assert.Equal(t, 120, whey.ReviewCount)
	assert.True(t, whey.IsPrime)
	assert.True(t, whey.InStock)
	require.NotNil(t, whey.SubscribeSavePct)
	assert.Equal(t, "15", whey.SubscribeSavePct.String())

	assert.True(t, listings[1].IsSponsored)
	assert.Nil(t, listings[1].Price)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("listings: [unclosed"))
	assert.Error(t, err)

	_, err = Parse([]byte("listings:\n  - title: no asin\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	path := writeSeed(t, sample)
	ctx := context.Background()

	t.Run("empty catalog is seeded", func(t *testing.T) {
		ing := &fakeIngester{}
		loaded, err := Run(ctx, path, fakeCounter{}, ing)
		require.NoError(t, err)
		assert.True(t, loaded)
		assert.Len(t, ing.got, 2)
	})

	t.Run("populated catalog is left alone", func(t *testing.T) {
		ing := &fakeIngester{}
		loaded, err := Run(ctx, path, fakeCounter{n: 4}, ing)
		require.NoError(t, err)
		assert.False(t, loaded)
		assert.Nil(t, ing.got)
	})

	t.Run("no path configured", func(t *testing.T) {
		loaded, err := Run(ctx, "", fakeCounter{}, &fakeIngester{})
		require.NoError(t, err)
		assert.False(t, loaded)
	})

	t.Run("count failure", func(t *testing.T) {
		_, err := Run(ctx, path, fakeCounter{err: errors.New("locked")}, &fakeIngester{})
		assert.Error(t, err)
	})

	t.Run("ingest failure", func(t *testing.T) {
		_, err := Run(ctx, path, fakeCounter{}, &fakeIngester{err: errors.New("boom")})
		assert.Error(t, err)
	})
}
