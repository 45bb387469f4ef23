package models

// Category is a tone keyword category.
type Category string

const (
	CategoryPositive      Category = "positive"
	CategoryNegative      Category = "negative"
	CategoryDirective     Category = "directive"
	CategoryCollaborative Category = "collaborative"
	CategoryFormal        Category = "formal"
	CategoryCasual        Category = "casual"
)

// Categories lists every category in canonical order. Ties for the primary
// category resolve to the earliest entry.
var Categories = []Category{
	CategoryPositive,
	CategoryNegative,
	CategoryDirective,
	CategoryCollaborative,
	CategoryFormal,
	CategoryCasual,
}

type InsightKind string

const (
	InsightWarning InsightKind = "warning"
	InsightInfo    InsightKind = "info"
	InsightSuccess InsightKind = "success"
)

// Insight is a rule-based observation about a message's tone
type Insight struct {
	Kind       InsightKind `json:"kind"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion"`
}

// ToneSignal is the heuristic tone reading of one piece of text.
type ToneSignal struct {
	CategoryCounts  map[Category]int `json:"category_counts"`
	CompositeScore  int              `json:"composite_score"`
	PrimaryCategory Category         `json:"primary_category"`
	Insights        []Insight        `json:"insights"`
}

// Count returns the keyword count for a category, zero when unset.
func (s ToneSignal) Count(c Category) int {
	return s.CategoryCounts[c]
}
