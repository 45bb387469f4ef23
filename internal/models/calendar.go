package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MeetingType string

const (
	MeetingOneOnOne MeetingType = "one-on-one"
	MeetingTeam     MeetingType = "team"
	MeetingReview   MeetingType = "review"
	MeetingPlanning MeetingType = "planning"
	MeetingRetro    MeetingType = "retro"
	MeetingOther    MeetingType = "other"
)

var meetingTypeMarkers = []struct {
	kind    MeetingType
	markers []string
}{
	{MeetingOneOnOne, []string{"1:1", "one on one", "1-1"}},
	{MeetingTeam, []string{"team", "standup", "sync"}},
	{MeetingReview, []string{"review", "performance"}},
	{MeetingPlanning, []string{"planning", "roadmap"}},
	{MeetingRetro, []string{"retro", "retrospective"}},
}

// MeetingTypeOf classifies a meeting by its title. The first matching type wins.
func MeetingTypeOf(title string) MeetingType {
	lower := strings.ToLower(title)
	for _, m := range meetingTypeMarkers {
		for _, marker := range m.markers {
			if strings.Contains(lower, marker) {
				return m.kind
			}
		}
	}
	return MeetingOther
}

// CalendarEvent is a meeting on the owner's calendar.
type CalendarEvent struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
}

// Type derives the meeting type from the title.
func (e *CalendarEvent) Type() MeetingType {
	return MeetingTypeOf(e.Title)
}

// MeetingNote holds prep state for an event. The zero value is the default.
type MeetingNote struct {
	EventID   uuid.UUID `json:"event_id"`
	NeedsPrep bool      `json:"needs_prep"`
	Notes     string    `json:"notes"`
}
