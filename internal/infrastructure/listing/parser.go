// Package listing fetches retailer search result pages and turns their
// product cards into domain listings.
package listing

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dealscope/backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	resultCards    = `[data-component-type="s-search-result"], [data-component-type="sp-sponsored-result"]`
	sponsoredType  = "sp-sponsored-result"
	strikePrice    = `.a-price[data-a-strike="true"] .a-offscreen`
	productPathFmt = "%s/dp/%s"
)

var (
	priceChars = regexp.MustCompile(`[^0-9.]`)
	firstNum   = regexp.MustCompile(`\d+\.?\d*`)
	countRun   = regexp.MustCompile(`\d[\d,]*`)
)

// Parse reads a search results page and returns one listing per product card.
// Cards without an ASIN or title are skipped. baseURL is used to build the
// product page URL.
func Parse(r io.Reader, baseURL string) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	listings := make([]domain.Listing, 0)
	doc.Find(resultCards).Each(func(_ int, card *goquery.Selection) {
		if l, ok := parseCard(card, baseURL); ok {
			listings = append(listings, l)
		}
	})
	return listings, nil
}

func parseCard(card *goquery.Selection, baseURL string) (domain.Listing, bool) {
	asin := strings.TrimSpace(card.AttrOr("data-asin", ""))
	if asin == "" {
		return domain.Listing{}, false
	}
	title := strings.TrimSpace(card.Find("h2 a span").First().Text())
	if title == "" {
		return domain.Listing{}, false
	}

	l := domain.Listing{
		ASIN:        asin,
		Title:       title,
		IsSponsored: isSponsored(card),
		IsPrime:     card.Find(`[aria-label="Amazon Prime"]`).Length() > 0,
		InStock:     true,
	}
	if baseURL != "" {
		l.URL = fmt.Sprintf(productPathFmt, baseURL, asin)
	}

	card.Find(".a-price").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.AttrOr("data-a-strike", "") == "true" {
			return true
		}
		l.Price = parsePrice(s.Find(".a-offscreen").First().Text())
		return l.Price == nil
	})
	l.ListPrice = parsePrice(card.Find(strikePrice).First().Text())
	l.Rating = parseRating(card.Find(".a-icon-star-small .a-icon-alt").First().Text())
	if label, ok := card.Find(`[aria-label*="stars"]`).First().Attr("aria-label"); ok {
		l.ReviewCount = parseReviewCount(label)
	}
	if src, ok := card.Find(".s-image").First().Attr("src"); ok {
		l.ImageURL = src
	}
	l.Brand = strings.TrimSpace(card.Find(".a-size-base-plus").First().Text())

	return l, true
}

func isSponsored(card *goquery.Selection) bool {
	if card.AttrOr("data-component-type", "") == sponsoredType {
		return true
	}
	badge := card.Find(".s-label-popover-default").First().Text()
	if strings.Contains(strings.ToLower(badge), "sponsored") {
		return true
	}
	return card.HasClass("AdHolder")
}

// parsePrice strips currency symbols and separators from text like "$1,054.99"
func parsePrice(text string) *decimal.Decimal {
	clean := priceChars.ReplaceAllString(text, "")
	if clean == "" {
		return nil
	}
	d, err := decimal.NewFromString(clean)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

// parseRating reads the leading number of text like "4.6 out of 5 stars"
func parseRating(text string) *decimal.Decimal {
	m := firstNum.FindString(text)
	if m == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(m, "."))
	if err != nil || d.IsZero() {
		return nil
	}
	return &d
}

// parseReviewCount reads the count that follows the star rating in labels
// like "4.6 out of 5 stars, 12,403 ratings"
func parseReviewCount(label string) int {
	if i := strings.LastIndex(label, "stars"); i >= 0 {
		label = label[i+len("stars"):]
	}
	m := countRun.FindString(label)
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
