package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dealscope/backend/internal/domain"
)

var (
	// "5 lb", "12 fl oz", "1.5 liters", "500g"
	sizeTokenPattern = regexp.MustCompile(`\b\d+(\.\d+)?\s*(fl\.?\s*oz|oz|ounces?|lbs?|pounds?|ml|liters?|litres?|gallons?|kg|grams?|g|mg)\b`)

	// "12 pack", "pack of 6", "6-pack", "120 count", "90 softgels"
	packTokenPattern = regexp.MustCompile(`\b\d+[-\s]*(pack|pk|count|ct|capsules?|caps|tablets?|softgels?|servings?|bars?|pouches?)\b|\bpack\s*of\s*\d+\b`)

	termSeparatorPattern = regexp.MustCompile(`[^\p{L}\p{N}&'+-]+`)
)

// searchNoiseWords never narrow a catalog search
var searchNoiseWords = map[string]bool{
	"value": true, "bonus": true, "new": true, "improved": true, "premium": true,
	"quality": true, "best": true, "great": true, "top": true, "rated": true,
	"deal": true, "deals": true, "sale": true, "cheap": true, "cheapest": true,
	"discount": true, "buy": true, "online": true, "for": true, "with": true,
	"and": true, "the": true, "of": true, "a": true, "an": true,
	"size": true, "large": true, "small": true, "mini": true, "jumbo": true,
	"bulk": true, "package": true, "box": true, "bag": true, "bottle": true,
	"jar": true, "tub": true, "product": true, "brand": true, "item": true,
}

// searchTerms reduces free search text to the words a title or brand must
// contain. Sizes, pack counts and marketing words are dropped; order of first
// appearance is kept and duplicates removed.
func searchTerms(text string) []string {
	cleaned := strings.ToLower(text)
	cleaned = sizeTokenPattern.ReplaceAllString(cleaned, " ")
	cleaned = packTokenPattern.ReplaceAllString(cleaned, " ")

	seen := make(map[string]bool)
	var terms []string
	for _, word := range termSeparatorPattern.Split(cleaned, -1) {
		word = strings.Trim(word, "'+-&")
		if word == "" || searchNoiseWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		terms = append(terms, word)
	}
	return terms
}

// anchorTerm is the term handed to the repository text search: the longest,
// which is usually the most selective
func anchorTerm(terms []string) string {
	if len(terms) == 0 {
		return ""
	}
	byLength := append([]string(nil), terms...)
	sort.SliceStable(byLength, func(i, j int) bool { return len(byLength[i]) > len(byLength[j]) })
	return byLength[0]
}

// matchesTerms reports whether every term appears in the product's title or brand
func matchesTerms(p *domain.Product, terms []string) bool {
	haystack := strings.ToLower(p.Title + " " + p.Brand)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}
