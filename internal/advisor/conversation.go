package advisor

import (
	"strings"
	"sync"
	"time"

	"github.com/xaenox/mgmt-boost/internal/models"
)

// DefaultContextSize is how many turns a Conversation keeps.
const DefaultContextSize = 20

// Conversation is the capped, in-memory history used to build prompts. The
// oldest entries are dropped first. It is never persisted.
type Conversation struct {
	mu      sync.Mutex
	limit   int
	now     func() time.Time
	entries []models.ContextEntry
}

func NewConversation(limit int) *Conversation {
	if limit <= 0 {
		limit = DefaultContextSize
	}
	return &Conversation{limit: limit, now: time.Now}
}

// Append records a turn and trims the history to the limit.
func (c *Conversation) Append(text string, role models.SpeakerRole) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, models.ContextEntry{
		Text:      text,
		Role:      role,
		Timestamp: c.now(),
	})
	if over := len(c.entries) - c.limit; over > 0 {
		kept := make([]models.ContextEntry, c.limit)
		copy(kept, c.entries[over:])
		c.entries = kept
	}
}

// Entries returns a copy of the history, oldest first.
func (c *Conversation) Entries() []models.ContextEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.ContextEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

// Format renders the history as "role: text" lines.
func (c *Conversation) Format() string {
	entries := c.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = string(e.Role) + ": " + e.Text
	}
	return strings.Join(lines, "\n")
}
