package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/xaenox/mgmt-boost/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage persists the panel's settings, diary and calendar. Every write is
// last-write-wins.
type Storage interface {
	GetPrefs(ctx context.Context, ownerID int64) (*models.Prefs, error)
	SavePrefs(ctx context.Context, prefs *models.Prefs) error
	ListPrefs(ctx context.Context) ([]*models.Prefs, error)
	Close() error

	DiaryStorage
	CalendarStorage
}

type DiaryStorage interface {
	GetDiaryEntry(ctx context.Context, ownerID int64, date string) (*models.DiaryEntry, error)
	SaveDiaryEntry(ctx context.Context, entry *models.DiaryEntry) error
	// ListDiaryEntries returns up to limit entries, newest date first.
	ListDiaryEntries(ctx context.Context, ownerID int64, limit int) ([]*models.DiaryEntry, error)
}

type CalendarStorage interface {
	// SaveEvent inserts or replaces an event, assigning an ID when it has none.
	SaveEvent(ctx context.Context, event *models.CalendarEvent) error
	DeleteEvent(ctx context.Context, ownerID int64, id uuid.UUID) error
	// ListEvents returns events starting in [from, to), ordered by start.
	ListEvents(ctx context.Context, ownerID int64, from, to time.Time) ([]*models.CalendarEvent, error)
	// GetMeetingNote returns the zero note for events without one.
	GetMeetingNote(ctx context.Context, eventID uuid.UUID) (*models.MeetingNote, error)
	SaveMeetingNote(ctx context.Context, note *models.MeetingNote) error
}

// ValidDiaryDate reports whether date is a YYYY-MM-DD day.
func ValidDiaryDate(date string) bool {
	_, err := time.Parse(models.DiaryDateLayout, date)
	return err == nil
}
