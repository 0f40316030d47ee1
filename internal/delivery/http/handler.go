package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/dealscope/backend/internal/domain"
	"github.com/dealscope/backend/internal/pkg/logging"
	"github.com/dealscope/backend/internal/pricing"
	"github.com/dealscope/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	serviceName    = "dealscope-backend"
	serviceVersion = "1.0.0"

	maxDays        = 365
	maxIngestBatch = 500
)

var logger = logging.New("http")

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerConfig holds the drop alert defaults used when a request omits them
type HandlerConfig struct {
	DropAlertMinPct float64
	DropAlertHours  int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	products *usecase.ProductService
	history  *usecase.PriceHistoryService
	store    Pinger
	config   HandlerConfig
}

// NewHandler creates a new HTTP handler. store may be nil.
func NewHandler(products *usecase.ProductService, history *usecase.PriceHistoryService, store Pinger, config HandlerConfig) *Handler {
	if config.DropAlertMinPct <= 0 {
		config.DropAlertMinPct = 10
	}
	if config.DropAlertHours <= 0 {
		config.DropAlertHours = 24
	}
	return &Handler{
		products: products,
		history:  history,
		store:    store,
		config:   config,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if h.store != nil {
		if err := h.store.Ping(c.Request.Context()); err != nil {
			logger.Error().Err(err).Msg("health check: store unreachable")
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": serviceName,
		"version": serviceVersion,
	})
}

// Search handles GET /search
func (h *Handler) Search(c *gin.Context) {
	var query domain.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}
	query.Brands = splitCSV(query.Brands)
	query.ExcludeBrands = splitCSV(query.ExcludeBrands)

	resp, err := h.products.Search(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Product handles GET /products/:asin
func (h *Handler) Product(c *gin.Context) {
	detail, err := h.products.Product(c.Request.Context(), c.Param("asin"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// PriceHistory handles GET /products/:asin/history
func (h *Handler) PriceHistory(c *gin.Context) {
	days, ok := daysParam(c)
	if !ok {
		return
	}
	points, err := h.history.History(c.Request.Context(), c.Param("asin"), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asin":   c.Param("asin"),
		"points": points,
	})
}

// PriceStatistics handles GET /products/:asin/statistics
func (h *Handler) PriceStatistics(c *gin.Context) {
	days, ok := daysParam(c)
	if !ok {
		return
	}
	stats, err := h.history.Statistics(c.Request.Context(), c.Param("asin"), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// BestPriceTime handles GET /products/:asin/best-time
func (h *Handler) BestPriceTime(c *gin.Context) {
	days, ok := daysParam(c)
	if !ok {
		return
	}
	best, err := h.history.BestPriceTime(c.Request.Context(), c.Param("asin"), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, best)
}

// Compare handles POST /compare
func (h *Handler) Compare(c *gin.Context) {
	var req domain.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.products.Compare(c.Request.Context(), req.ASINs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Categories handles GET /categories
func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.products.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// Brands handles GET /brands
func (h *Handler) Brands(c *gin.Context) {
	brands, err := h.products.Brands(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, brands)
}

// CategoryStats handles GET /category-stats/:category
func (h *Handler) CategoryStats(c *gin.Context) {
	stats, err := h.products.CategoryStats(c.Request.Context(), c.Param("category"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DropAlerts handles GET /alerts/drops
func (h *Handler) DropAlerts(c *gin.Context) {
	minDrop := h.config.DropAlertMinPct
	if raw := c.Query("min_drop"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || v <= 0 || v > 100 {
			badRequestMsg(c, "min_drop must be a number in (0, 100]")
			return
		}
		minDrop = v
	}
	hours := h.config.DropAlertHours
	if raw := c.Query("hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxDays*24 {
			badRequestMsg(c, "hours must be a positive integer")
			return
		}
		hours = v
	}

	alerts, err := h.history.DropAlerts(c.Request.Context(), minDrop, hours)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"minDropPercentage": minDrop,
		"hours":             hours,
		"alerts":            alerts,
	})
}

// UnitPriceRequest asks for the unit price implied by a listing title
type UnitPriceRequest struct {
	Title            string           `json:"title" binding:"required"`
	Price            *decimal.Decimal `json:"price" binding:"required"`
	SubscribeSavePct *decimal.Decimal `json:"subscribeSavePct"`
}

// UnitPriceResponse is the extracted quantity and computed unit price
type UnitPriceResponse struct {
	domain.UnitPriceResult
	Title         string                      `json:"title"`
	Price         decimal.Decimal             `json:"price"`
	SubscribeSave *pricing.SubscribeSaveValue `json:"subscribeSave,omitempty"`
}

// UnitPrice handles POST /unit-price
func (h *Handler) UnitPrice(c *gin.Context) {
	var req UnitPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Price.IsNegative() {
		badRequestMsg(c, "price must not be negative")
		return
	}

	result, ok := pricing.ExtractAndCalculate(req.Title, *req.Price)
	if !ok {
		h.fail(c, domain.ErrNoUnitMatch)
		return
	}

	resp := UnitPriceResponse{UnitPriceResult: result, Title: req.Title, Price: *req.Price}
	if req.SubscribeSavePct != nil {
		if req.SubscribeSavePct.IsNegative() || req.SubscribeSavePct.GreaterThan(decimal.NewFromInt(100)) {
			badRequestMsg(c, "subscribeSavePct must be between 0 and 100")
			return
		}
		ss := pricing.SubscribeSave(*req.Price, result.OriginalQuantity, result.RawUnit, *req.SubscribeSavePct)
		resp.SubscribeSave = &ss
	}
	c.JSON(http.StatusOK, resp)
}

// BulkUnitPriceRequest lists the size options of one product
type BulkUnitPriceRequest struct {
	Options []pricing.SizeOption `json:"options" binding:"required,min=1,max=50,dive"`
}

// BulkUnitPrice handles POST /unit-price/bulk
func (h *Handler) BulkUnitPrice(c *gin.Context) {
	var req BulkUnitPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	analysis := pricing.BulkSavings(req.Options)
	c.JSON(http.StatusOK, gin.H{
		"options": analysis,
		"dropped": len(req.Options) - len(analysis),
	})
}

// IngestRequest carries a batch of scraped or imported listings
type IngestRequest struct {
	Listings []domain.Listing `json:"listings" binding:"required"`
}

// IngestListings handles POST /listings
func (h *Handler) IngestListings(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Listings) > maxIngestBatch {
		badRequestMsg(c, "too many listings in one batch")
		return
	}

	result, err := h.products.Ingest(c.Request.Context(), req.Listings)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Scrape handles POST /scrape
func (h *Handler) Scrape(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequestMsg(c, "q is required")
		return
	}
	result, err := h.products.Scrape(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// daysParam reads the optional days query value; 0 means the service default
func daysParam(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return 0, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > maxDays {
		badRequestMsg(c, "days must be an integer between 1 and 365")
		return 0, false
	}
	return days, true
}

// splitCSV accepts both repeated parameters and comma separated values
func splitCSV(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// fail maps domain errors to HTTP status codes
func (h *Handler) fail(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Str("request_id", c.GetString(requestIDKey)).Msg("request failed")
	}
	c.JSON(status, gin.H{
		"error": errorMessage(status, err),
		"code":  code,
	})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, domain.ErrNoUnitMatch):
		return http.StatusUnprocessableEntity, "NO_UNIT_MATCH"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, domain.ErrScraperDisabled):
		return http.StatusServiceUnavailable, "SCRAPER_DISABLED"
	case errors.Is(err, domain.ErrScraperFailure):
		return http.StatusBadGateway, "SCRAPER_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func errorMessage(status int, err error) string {
	if status == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

func badRequest(c *gin.Context, err error) {
	badRequestMsg(c, "invalid request: "+err.Error())
}

func badRequestMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": msg,
		"code":  "INVALID_REQUEST",
	})
}
