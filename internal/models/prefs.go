package models

import "time"

// Prefs holds an owner's panel settings
type Prefs struct {
	OwnerID   int64     `json:"owner_id"`
	APIKey    string    `json:"api_key,omitempty"`
	Manager   string    `json:"manager"`
	Team      string    `json:"team"`
	Channels  string    `json:"channels"`
	ChatID    int64     `json:"chat_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAPIKey reports whether a remote credential is stored.
func (p *Prefs) HasAPIKey() bool {
	return p != nil && p.APIKey != ""
}
