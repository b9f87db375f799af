// Package model defines the core domain models used throughout the application.
package model

import "math"

// Categories of the closed vocabulary.
const (
	CategoryFoodDining      = "Food & Dining"
	CategoryTransportation  = "Transportation"
	CategoryShopping        = "Shopping"
	CategoryEntertainment   = "Entertainment"
	CategoryBillsUtilities  = "Bills & Utilities"
	CategoryHealthcare      = "Healthcare"
	CategoryEducation       = "Education"
	CategoryIncome          = "Income"
	CategoryOther           = "Other"
	DefaultFallbackCategory = CategoryOther
)

// DefaultFallbackConfidence is reported when the AI tier cannot produce a usable answer.
const DefaultFallbackConfidence = 30

// Categories returns the closed category vocabulary in display order.
func Categories() []string {
	return []string{
		CategoryFoodDining,
		CategoryTransportation,
		CategoryShopping,
		CategoryEntertainment,
		CategoryBillsUtilities,
		CategoryHealthcare,
		CategoryEducation,
		CategoryIncome,
		CategoryOther,
	}
}

// ClassificationSource records which tier produced a result.
type ClassificationSource string

// Classification source constants.
const (
	SourceRule    ClassificationSource = "rule"
	SourceAI      ClassificationSource = "ai"
	SourceDefault ClassificationSource = "default"
)

// ClassificationResult is the outcome of categorizing one description.
type ClassificationResult struct {
	Category   string               `json:"category"`
	Source     ClassificationSource `json:"source"`
	Confidence int                  `json:"confidence"`
}

// DefaultClassification is the result used whenever the AI tier fails.
func DefaultClassification() ClassificationResult {
	return ClassificationResult{
		Category:   DefaultFallbackCategory,
		Confidence: DefaultFallbackConfidence,
		Source:     SourceDefault,
	}
}

// ClampConfidence rounds a raw score and bounds it to [0, 100].
func ClampConfidence(raw float64) int {
	if math.IsNaN(raw) {
		return 0
	}
	rounded := math.Round(raw)
	switch {
	case rounded < 0:
		return 0
	case rounded > 100:
		return 100
	default:
		return int(rounded)
	}
}
