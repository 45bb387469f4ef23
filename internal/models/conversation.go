package models

import "time"

type SpeakerRole string

const (
	RoleUser      SpeakerRole = "user"
	RoleAssistant SpeakerRole = "assistant"
)

// ContextEntry is one remembered turn of the conversation.
type ContextEntry struct {
	Text      string      `json:"text"`
	Role      SpeakerRole `json:"role"`
	Timestamp time.Time   `json:"timestamp"`
}
