package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xaenox/mgmt-boost/internal/models"
)

type diaryKey struct {
	ownerID int64
	date    string
}

type MemoryStorage struct {
	mu     sync.RWMutex
	prefs  map[int64]*models.Prefs
	diary  map[diaryKey]*models.DiaryEntry
	events map[uuid.UUID]*models.CalendarEvent
	notes  map[uuid.UUID]*models.MeetingNote
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		prefs:  make(map[int64]*models.Prefs),
		diary:  make(map[diaryKey]*models.DiaryEntry),
		events: make(map[uuid.UUID]*models.CalendarEvent),
		notes:  make(map[uuid.UUID]*models.MeetingNote),
	}
}

// Prefs methods
func (s *MemoryStorage) GetPrefs(ctx context.Context, ownerID int64) (*models.Prefs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, exists := s.prefs[ownerID]; exists {
		cp := *p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) SavePrefs(ctx context.Context, prefs *models.Prefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs.UpdatedAt = time.Now()
	cp := *prefs
	s.prefs[prefs.OwnerID] = &cp
	return nil
}

func (s *MemoryStorage) ListPrefs(ctx context.Context) ([]*models.Prefs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Prefs, 0, len(s.prefs))
	for _, p := range s.prefs {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out, nil
}

// Diary methods
func (s *MemoryStorage) GetDiaryEntry(ctx context.Context, ownerID int64, date string) (*models.DiaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, exists := s.diary[diaryKey{ownerID, date}]; exists {
		cp := *e
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) SaveDiaryEntry(ctx context.Context, entry *models.DiaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.UpdatedAt = time.Now()
	cp := *entry
	s.diary[diaryKey{entry.OwnerID, entry.Date}] = &cp
	return nil
}

func (s *MemoryStorage) ListDiaryEntries(ctx context.Context, ownerID int64, limit int) ([]*models.DiaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.DiaryEntry{}
	for k, e := range s.diary {
		if k.ownerID == ownerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Calendar methods
func (s *MemoryStorage) SaveEvent(ctx context.Context, event *models.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *MemoryStorage) DeleteEvent(ctx context.Context, ownerID int64, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.events[id]
	if !exists || e.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(s.events, id)
	delete(s.notes, id)
	return nil
}

func (s *MemoryStorage) ListEvents(ctx context.Context, ownerID int64, from, to time.Time) ([]*models.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.CalendarEvent{}
	for _, e := range s.events {
		if e.OwnerID == ownerID && !e.Start.Before(from) && e.Start.Before(to) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (s *MemoryStorage) GetMeetingNote(ctx context.Context, eventID uuid.UUID) (*models.MeetingNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, exists := s.notes[eventID]; exists {
		cp := *n
		return &cp, nil
	}
	return &models.MeetingNote{EventID: eventID}, nil
}

func (s *MemoryStorage) SaveMeetingNote(ctx context.Context, note *models.MeetingNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[note.EventID]; !exists {
		return ErrNotFound
	}
	cp := *note
	s.notes[note.EventID] = &cp
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
