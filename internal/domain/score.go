package domain

import "github.com/shopspring/decimal"

// Confidence grades a discount verdict
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ScoreComponent is one additive term of a score. Err is set when the term
// could not be computed; such a term contributes zero points.
type ScoreComponent struct {
	Name    string  `json:"name"`
	Points  float64 `json:"points"`
	Applied bool    `json:"applied"`
	Err     error   `json:"-"`
}

// Score is an integer in [0,100] together with the terms that produced it
type Score struct {
	Value      int              `json:"value"`
	Components []ScoreComponent `json:"components,omitempty"`
	// Err is set when the whole score fell back to its neutral default
	Err error `json:"-"`
}

// DiscountVerdict says whether a claimed list price was ever actually charged
type DiscountVerdict struct {
	IsLegitimate    bool             `json:"isLegitimate"`
	Confidence      Confidence       `json:"confidence"`
	Message         string           `json:"message"`
	RealDiscountPct *decimal.Decimal `json:"realDiscountPct,omitempty"`
	InflatedByPct   *decimal.Decimal `json:"inflatedByPct,omitempty"`
}

// ScoreResult groups the three independent scores and the discount verdict for a product
type ScoreResult struct {
	HiddenGem        int             `json:"hiddenGem"`
	DealQuality      int             `json:"dealQuality"`
	PricePerformance int             `json:"pricePerformance"`
	Discount         DiscountVerdict `json:"discount"`
}
