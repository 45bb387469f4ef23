package tone

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xaenox/mgmt-boost/internal/models"
)

const longMessageThreshold = 200

// Scorer counts tone keywords and derives a ToneSignal. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	patterns map[models.Category][]*regexp.Regexp
}

// NewScorer compiles a keyword table. Every category must be present and no
// keyword may be blank.
func NewScorer(keywords Keywords) (*Scorer, error) {
	patterns := make(map[models.Category][]*regexp.Regexp, len(models.Categories))
	for _, category := range models.Categories {
		words, ok := keywords[category]
		if !ok {
			return nil, fmt.Errorf("keyword table missing category %q", category)
		}
		for _, word := range words {
			word = strings.TrimSpace(word)
			if word == "" {
				return nil, fmt.Errorf("blank keyword in category %q", category)
			}
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
			if err != nil {
				return nil, fmt.Errorf("compile keyword %q: %w", word, err)
			}
			patterns[category] = append(patterns[category], re)
		}
	}
	return &Scorer{patterns: patterns}, nil
}

var defaultScorer = mustScorer(DefaultKeywords)

func mustScorer(keywords Keywords) *Scorer {
	s, err := NewScorer(keywords)
	if err != nil {
		panic(err)
	}
	return s
}

// Score analyzes text with the default keyword table.
func Score(text string) models.ToneSignal {
	return defaultScorer.Score(text)
}

// Score analyzes text. It never fails: empty text yields all-zero counts.
func (s *Scorer) Score(text string) models.ToneSignal {
	counts := s.count(text)
	return models.ToneSignal{
		CategoryCounts:  counts,
		CompositeScore:  Composite(counts),
		PrimaryCategory: primary(counts),
		Insights:        insights(counts, utf8.RuneCountInString(text)),
	}
}

func (s *Scorer) count(text string) map[models.Category]int {
	counts := make(map[models.Category]int, len(models.Categories))
	for _, category := range models.Categories {
		n := 0
		for _, re := range s.patterns[category] {
			n += len(re.FindAllStringIndex(text, -1))
		}
		counts[category] = n
	}
	return counts
}

// Composite averages the positivity and collaboration sub-scores.
func Composite(counts map[models.Category]int) int {
	positivity := clamp((counts[models.CategoryPositive]-counts[models.CategoryNegative]+10)*10, 0, 100)
	collaboration := clamp((counts[models.CategoryCollaborative]-counts[models.CategoryDirective]+5)*10, 0, 100)
	return clamp((positivity+collaboration)/2, 0, 100)
}

func primary(counts map[models.Category]int) models.Category {
	best := models.Categories[0]
	for _, category := range models.Categories[1:] {
		if counts[category] > counts[best] {
			best = category
		}
	}
	return best
}

func insights(counts map[models.Category]int, length int) []models.Insight {
	out := []models.Insight{}

	if counts[models.CategoryDirective] > counts[models.CategoryCollaborative] {
		out = append(out, models.Insight{
			Kind:       models.InsightWarning,
			Message:    "Consider using more collaborative language",
			Suggestion: `Try "let's" instead of "you must"`,
		})
	}

	if counts[models.CategoryNegative] > counts[models.CategoryPositive] {
		out = append(out, models.Insight{
			Kind:       models.InsightWarning,
			Message:    "Message may come across as negative",
			Suggestion: "Consider reframing with positive intent",
		})
	}

	if length > longMessageThreshold {
		out = append(out, models.Insight{
			Kind:       models.InsightInfo,
			Message:    "Message is quite long",
			Suggestion: "Consider breaking into smaller, focused messages",
		})
	}

	if counts[models.CategoryCollaborative] > 0 && counts[models.CategoryPositive] > 0 {
		out = append(out, models.Insight{
			Kind:       models.InsightSuccess,
			Message:    "Great collaborative tone!",
			Suggestion: "This message encourages team engagement",
		})
	}

	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
