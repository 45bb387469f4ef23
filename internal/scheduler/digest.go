package scheduler

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xaenox/mgmt-boost/internal/models"
)

const digestTitle = "Today's agenda"

// BuildDigest renders events as a plain-text agenda. Events needing prep are
// flagged from notes; events without a note are not.
func BuildDigest(events []*models.CalendarEvent, notes map[uuid.UUID]*models.MeetingNote) string {
	if len(events) == 0 {
		return digestTitle + "\n\nNo meetings scheduled."
	}

	var sb strings.Builder
	sb.WriteString(digestTitle)
	sb.WriteString("\n")
	for _, e := range events {
		fmt.Fprintf(&sb, "\n%s-%s %s (%s)",
			e.Start.Local().Format("15:04"),
			e.End.Local().Format("15:04"),
			e.Title,
			e.Type())
		if note := notes[e.ID]; note != nil && note.NeedsPrep {
			sb.WriteString(" [prep]")
		}
	}
	return sb.String()
}
