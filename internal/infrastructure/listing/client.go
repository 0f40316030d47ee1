package listing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dealscope/backend/internal/domain"
	"github.com/dealscope/backend/internal/pkg/logging"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent is sent when no user agent is configured
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	maxAttempts = 3
	maxBodySize = 8 << 20
)

var logger = logging.New("listing")

// Client fetches search result pages from a retailer site
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
}

// NewClient creates a client for baseURL allowing requestsPerHour page fetches
func NewClient(baseURL, userAgent string, requestsPerHour int) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if requestsPerHour <= 0 {
		requestsPerHour = 1000
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		userAgent:   userAgent,
		rateLimiter: limiter,
		backoff:     exponentialBackoff,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<(attempt-1)) * 500 * time.Millisecond
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrScraperFailure, err)
	}
	return resp, nil
}

// Search fetches the first pages of results for query. A page that fails
// after all retries aborts the scan only when nothing was collected yet.
func (c *Client) Search(ctx context.Context, query string, pages int) ([]domain.Listing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", domain.ErrInvalidRequest)
	}
	if pages <= 0 {
		pages = 1
	}

	var all []domain.Listing
	for page := 1; page <= pages; page++ {
		listings, err := c.fetchPage(ctx, query, page)
		if err != nil {
			if len(all) == 0 {
				return nil, err
			}
			logger.Warn().Err(err).Str("query", query).Int("page", page).Msg("stopping scan after page failure")
			break
		}
		all = append(all, listings...)
	}

	logger.Info().Str("query", query).Int("pages", pages).Int("listings", len(all)).Msg("search scraped")
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, query string, page int) ([]domain.Listing, error) {
	params := url.Values{}
	params.Set("k", query)
	params.Set("page", strconv.Itoa(page))
	reqURL := fmt.Sprintf("%s/s?%s", c.baseURL, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrRateLimited, err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			logger.Debug().Err(err).Int("attempt", attempt).Msg("request error")
			lastErr = err
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: read body: %v", domain.ErrScraperFailure, err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			logger.Debug().Int("attempt", attempt).Int("status", resp.StatusCode).Msg("unexpected status")
			lastErr = fmt.Errorf("%w: status %d", domain.ErrScraperFailure, resp.StatusCode)
			continue
		}

		return Parse(bytes.NewReader(body), c.baseURL)
	}

	logger.Warn().Err(lastErr).Str("query", query).Int("page", page).Msg("all retries failed")
	return nil, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
