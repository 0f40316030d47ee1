package listing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dealscope/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(baseURL, "", 3600000)
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func pageHTML(asin, title string) string {
	return fmt.Sprintf(`<div data-component-type="s-search-result" data-asin="%s"><h2><a><span>%s</span></a></h2>`+
		`<span class="a-price"><span class="a-offscreen">$10.00</span></span></div>`, asin, title)
}

func TestNewClient(t *testing.T) {
	client := NewClient("https://shop.example.com/", "", 0)

	assert.Equal(t, "https://shop.example.com", client.baseURL)
	assert.Equal(t, DefaultUserAgent, client.userAgent)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/s", r.URL.Path)
		assert.Equal(t, "whey protein", r.URL.Query().Get("k"))
		assert.Equal(t, "dealscope-test", r.Header.Get("User-Agent"))
		page := r.URL.Query().Get("page")
		fmt.Fprint(w, pageHTML("B00PAGE"+page, "Whey Protein 2 lb page "+page))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.userAgent = "dealscope-test"

	listings, err := client.Search(context.Background(), "whey protein", 2)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, "B00PAGE1", listings[0].ASIN)
	assert.Equal(t, "B00PAGE2", listings[1].ASIN)
	assert.Equal(t, server.URL+"/dp/B00PAGE1", listings[0].URL)
}

func TestSearch_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, pageHTML("B00RETRY", "Creatine 500g"))
	}))
	defer server.Close()

	listings, err := newTestClient(server.URL).Search(context.Background(), "creatine", 1)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearch_AllRetriesFail(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Search(context.Background(), "creatine", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrScraperFailure))
	assert.Contains(t, err.Error(), "status 403")
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&calls))
}

func TestSearch_LaterPageFailureKeepsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, pageHTML("B00FIRST", "Fish Oil 200 count"))
	}))
	defer server.Close()

	listings, err := newTestClient(server.URL).Search(context.Background(), "fish oil", 3)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "B00FIRST", listings[0].ASIN)
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:0").Search(context.Background(), "  ", 1)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}

func TestSearch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "whey", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
