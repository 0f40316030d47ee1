package domain

import "github.com/shopspring/decimal"

// Sort options accepted by product search
const (
	SortUnitPriceAsc    = "unit_price_asc"
	SortUnitPriceDesc   = "unit_price_desc"
	SortPriceAsc        = "price_asc"
	SortPriceDesc       = "price_desc"
	SortDiscountDesc    = "discount_desc"
	SortRatingDesc      = "rating_desc"
	SortReviewCountDesc = "review_count_desc"
	SortHiddenGemDesc   = "hidden_gem_desc"
)

// SearchQuery holds the catalog search text plus its filters, sort and page
type SearchQuery struct {
	Query          string   `form:"q" json:"q"`
	Sort           string   `form:"sort" json:"sort"`
	MinPrice       *float64 `form:"min_price" json:"minPrice,omitempty"`
	MaxPrice       *float64 `form:"max_price" json:"maxPrice,omitempty"`
	MinUnitPrice   *float64 `form:"min_unit_price" json:"minUnitPrice,omitempty"`
	MaxUnitPrice   *float64 `form:"max_unit_price" json:"maxUnitPrice,omitempty"`
	MinRating      *float64 `form:"min_rating" json:"minRating,omitempty"`
	MinReviewCount *int     `form:"min_review_count" json:"minReviewCount,omitempty"`
	PrimeOnly      bool     `form:"prime_only" json:"primeOnly"`
	HideSponsored  *bool    `form:"hide_sponsored" json:"hideSponsored,omitempty"`
	MinDiscount    *float64 `form:"min_discount" json:"minDiscount,omitempty"`
	Brands         []string `form:"brands" json:"brands,omitempty"`
	ExcludeBrands  []string `form:"exclude_brands" json:"excludeBrands,omitempty"`
	InStockOnly    bool     `form:"in_stock_only" json:"inStockOnly"`
	Page           int      `form:"page" json:"page"`
	Limit          int      `form:"limit" json:"limit"`
}

// ProductResult is a product in search results with comparison fields
type ProductResult struct {
	Product
	SavingsVsCategory *decimal.Decimal `json:"savingsVsCategory,omitempty"`
	IsBestValue       bool             `json:"isBestValue"`
}

// SearchResponse is one page of search results
type SearchResponse struct {
	Results         []ProductResult `json:"results"`
	Total           int             `json:"total"`
	Page            int             `json:"page"`
	Pages           int             `json:"pages"`
	SponsoredHidden int             `json:"sponsoredHidden"`
	Query           string          `json:"query"`
}

// ProductDetail is a product with its recent history and analysis
type ProductDetail struct {
	Product
	PriceHistory          []PricePoint     `json:"priceHistory"`
	SimilarProducts       []Product        `json:"similarProducts"`
	PricePerformanceScore int              `json:"pricePerformanceScore"`
	Discount              *DiscountVerdict `json:"discount,omitempty"`
	BestPriceTime         BestPriceTime    `json:"bestPriceTime"`
}

// CompareRequest lists the products to compare side by side
type CompareRequest struct {
	ASINs []string `json:"asins" binding:"required,min=2,max=10"`
}

// CompareResponse highlights the winners among compared products
type CompareResponse struct {
	Products          []Product `json:"products"`
	BestUnitPriceASIN string    `json:"bestUnitPriceAsin,omitempty"`
	BestRatingASIN    string    `json:"bestRatingAsin,omitempty"`
	BestValueASIN     string    `json:"bestValueAsin,omitempty"`
}

// IngestResult counts what happened to a batch of listings
type IngestResult struct {
	Received       int      `json:"received"`
	Ingested       int      `json:"ingested"`
	Skipped        int      `json:"skipped"`
	PricesRecorded int      `json:"pricesRecorded"`
	Categories     []string `json:"categories"`
}
