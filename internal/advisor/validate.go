package advisor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/xaenox/mgmt-boost/internal/models"
)

var advisoryRequiredKeys = []string{"tone_analysis", "suggestions"}

// parseAdvisory decodes a model reply into an Advisory. The reply must be a
// single JSON object; nothing is stripped or repaired.
func parseAdvisory(content string) (models.Advisory, error) {
	var advisory models.Advisory

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return advisory, fmt.Errorf("decode advisory: %w", err)
	}
	for _, key := range advisoryRequiredKeys {
		v, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return advisory, fmt.Errorf("advisory missing %q", key)
		}
	}

	var rawSuggestions []map[string]json.RawMessage
	if err := json.Unmarshal(raw["suggestions"], &rawSuggestions); err != nil {
		return advisory, fmt.Errorf("decode advisory suggestions: %w", err)
	}
	for i, s := range rawSuggestions {
		if _, ok := s["reasoning"]; !ok {
			return advisory, fmt.Errorf("suggestion %d missing \"reasoning\"", i)
		}
	}

	if err := json.Unmarshal([]byte(content), &advisory); err != nil {
		return advisory, fmt.Errorf("decode advisory: %w", err)
	}

	ta := advisory.ToneAnalysis
	if ta.OverallSentiment == "" || ta.UrgencyLevel == "" || ta.FormalityLevel == "" {
		return advisory, errors.New("advisory tone_analysis is incomplete")
	}
	for i, s := range advisory.Suggestions {
		if strings.TrimSpace(s.Type) == "" {
			return advisory, fmt.Errorf("suggestion %d has no type", i)
		}
		if strings.TrimSpace(s.Message) == "" {
			return advisory, fmt.Errorf("suggestion %d has no message", i)
		}
		if !s.Priority.Valid() {
			return advisory, fmt.Errorf("suggestion %d has unknown priority %q", i, s.Priority)
		}
	}
	return advisory, nil
}

type scorePayload struct {
	Score        *float64 `json:"score"`
	Description  *string  `json:"description"`
	Improvements []string `json:"improvements"`
}

func parseToneScore(content string) (models.ToneScore, error) {
	var p scorePayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return models.ToneScore{}, fmt.Errorf("decode score: %w", err)
	}
	if p.Score == nil || p.Description == nil {
		return models.ToneScore{}, errors.New("score response missing score or description")
	}
	if *p.Score != math.Trunc(*p.Score) || *p.Score < 0 || *p.Score > 100 {
		return models.ToneScore{}, fmt.Errorf("score %v is not an integer in [0,100]", *p.Score)
	}
	return models.ToneScore{
		Score:        int(*p.Score),
		Description:  *p.Description,
		Improvements: p.Improvements,
	}, nil
}
