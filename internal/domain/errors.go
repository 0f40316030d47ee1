package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product cannot be found in the catalog
	ErrProductNotFound = errors.New("product not found")

	// ErrCategoryNotFound is returned when no product belongs to the requested category
	ErrCategoryNotFound = errors.New("category not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrScraperFailure is returned when fetching a search results page fails
	ErrScraperFailure = errors.New("listing scraper request failed")

	// ErrScraperDisabled is returned when scraping is requested without a configured source
	ErrScraperDisabled = errors.New("listing scraper not configured")

	// ErrNoUnitMatch is returned when a title carries no recognizable quantity/unit
	ErrNoUnitMatch = errors.New("no quantity or unit found in title")

	// ErrArithmetic marks a scoring component that could not be computed
	// (zero divisor, missing operand). It never escapes a scorer as a failure.
	ErrArithmetic = errors.New("arithmetic failure")
)
