package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a single product card observed in scraped search results
type Listing struct {
	ASIN             string           `json:"asin" yaml:"asin" binding:"required"`
	Title            string           `json:"title" yaml:"title" binding:"required"`
	Brand            string           `json:"brand,omitempty" yaml:"brand"`
	Category         string           `json:"category,omitempty" yaml:"category"`
	Price            *decimal.Decimal `json:"price,omitempty" yaml:"price"`
	ListPrice        *decimal.Decimal `json:"listPrice,omitempty" yaml:"list_price"`
	Rating           *decimal.Decimal `json:"rating,omitempty" yaml:"rating"`
	ReviewCount      int              `json:"reviewCount" yaml:"review_count"`
	ImageURL         string           `json:"imageUrl,omitempty" yaml:"image_url"`
	URL              string           `json:"url,omitempty" yaml:"url"`
	IsPrime          bool             `json:"isPrime" yaml:"is_prime"`
	IsSponsored      bool             `json:"isSponsored" yaml:"is_sponsored"`
	InStock          bool             `json:"inStock" yaml:"in_stock"`
	SubscribeSavePct *decimal.Decimal `json:"subscribeSavePct,omitempty" yaml:"subscribe_save_pct"`
}

// Product is the catalog record for one ASIN with derived pricing and scores
type Product struct {
	ASIN             string           `json:"asin"`
	Title            string           `json:"title"`
	Brand            string           `json:"brand,omitempty"`
	Category         string           `json:"category,omitempty"`
	CurrentPrice     *decimal.Decimal `json:"currentPrice,omitempty"`
	ListPrice        *decimal.Decimal `json:"listPrice,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unitPrice,omitempty"`
	UnitType         string           `json:"unitType,omitempty"`
	UnitQuantity     *decimal.Decimal `json:"unitQuantity,omitempty"`
	DiscountPct      *decimal.Decimal `json:"discountPct,omitempty"`
	Rating           *decimal.Decimal `json:"rating,omitempty"`
	ReviewCount      int              `json:"reviewCount"`
	ImageURL         string           `json:"imageUrl,omitempty"`
	URL              string           `json:"url,omitempty"`
	IsPrime          bool             `json:"isPrime"`
	IsSponsored      bool             `json:"isSponsored"`
	InStock          bool             `json:"inStock"`
	SubscribeSavePct *decimal.Decimal `json:"subscribeSavePct,omitempty"`
	HiddenGemScore   *int             `json:"hiddenGemScore,omitempty"`
	DealQualityScore *int             `json:"dealQualityScore,omitempty"`
	LastScrapedAt    time.Time        `json:"lastScrapedAt"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// CategoryStatistics summarizes all products sharing a category
type CategoryStatistics struct {
	Category        string           `json:"category"`
	MedianPrice     *decimal.Decimal `json:"medianPrice,omitempty"`
	MedianUnitPrice *decimal.Decimal `json:"medianUnitPrice,omitempty"`
	AvgRating       *decimal.Decimal `json:"avgRating,omitempty"`
	ProductCount    int              `json:"productCount"`
	LastUpdated     time.Time        `json:"lastUpdated"`
}
