package models

// Source names the layer that produced a boost result.
type Source string

const (
	SourceRemote    Source = "remote"
	SourceHeuristic Source = "heuristic"
	SourceIdentity  Source = "identity"
)

// BoostResult is what callers get back from a boost. It is always populated;
// BoostedText falls back to OriginalText when nothing better is available.
type BoostResult struct {
	OriginalText    string   `json:"original_text"`
	BoostedText     string   `json:"boosted_text"`
	Score           *int     `json:"score"`
	ScoreLabel      string   `json:"score_label,omitempty"`
	Sentiment       string   `json:"sentiment,omitempty"`
	Advisories      []string `json:"advisories"`
	Improvements    []string `json:"improvements"`
	ImmediateAction string   `json:"immediate_action,omitempty"`
	Source          Source   `json:"source"`
}

// Changed reports whether the boost altered the text.
func (r BoostResult) Changed() bool {
	return r.BoostedText != r.OriginalText
}
