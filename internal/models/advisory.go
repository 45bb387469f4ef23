package models

// Priority of an advisory suggestion
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities high to low. Unknown priorities rank last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() < 3
}

// ChannelInfo describes where the message is being composed.
type ChannelInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ToneAnalysis is the remote model's reading of the conversation.
type ToneAnalysis struct {
	OverallSentiment string `json:"overall_sentiment"`
	UrgencyLevel     string `json:"urgency_level"`
	FormalityLevel   string `json:"formality_level"`
}

// Suggestion is one advisory item returned by the remote model.
type Suggestion struct {
	Type      string   `json:"type"`
	Priority  Priority `json:"priority"`
	Message   string   `json:"message"`
	Reasoning string   `json:"reasoning"`
}

// Advisory is the structured result of a remote conversation analysis.
type Advisory struct {
	ToneAnalysis    ToneAnalysis `json:"tone_analysis"`
	Suggestions     []Suggestion `json:"suggestions"`
	BoostedMessage  string       `json:"boosted_message,omitempty"`
	ImmediateAction string       `json:"immediate_action,omitempty"`
}

// ToneScore is the remote model's numeric tone reading.
type ToneScore struct {
	Score        int      `json:"score"`
	Description  string   `json:"description"`
	Improvements []string `json:"improvements,omitempty"`
}

// Rewrite is a remotely rewritten message with before/after scores.
type Rewrite struct {
	Original      string `json:"original"`
	Boosted       string `json:"boosted"`
	OriginalScore int    `json:"original_score"`
	BoostedScore  int    `json:"boosted_score"`
	ScoreDelta    int    `json:"score_delta"`
}
