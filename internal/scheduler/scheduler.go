// Package scheduler sends the morning agenda digest on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/storage"
)

const stopTimeout = 5 * time.Second

// Notifier delivers a digest to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

type Scheduler struct {
	cron     *rcron.Cron
	store    storage.Storage
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// New registers the digest job on schedule, a six-field cron expression with
// seconds. The job does not run until Start.
func New(schedule string, store storage.Storage, notifier Notifier, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     rcron.New(rcron.WithSeconds()),
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop halts the schedule and waits briefly for a running digest to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(stopTimeout):
		s.logger.Warn("Timed out waiting for running digest")
	}
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runScheduled() {
	if err := s.RunDigest(context.Background()); err != nil {
		s.logger.Error("Digest run failed", zap.Error(err))
	}
}

// RunDigest sends today's agenda to every owner with a known chat and at
// least one event today. A failed delivery is logged and does not stop the
// remaining owners.
func (s *Scheduler) RunDigest(ctx context.Context) error {
	owners, err := s.store.ListPrefs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list owners: %w", err)
	}

	from, to := Today(s.now())
	for _, prefs := range owners {
		if prefs.ChatID == 0 {
			continue
		}

		text, n, err := AgendaFor(ctx, s.store, prefs.OwnerID, from, to)
		if err != nil {
			s.logger.Error("Failed to build digest", zap.Int64("owner_id", prefs.OwnerID), zap.Error(err))
			continue
		}
		if n == 0 {
			continue
		}

		if err := s.notifier.Notify(ctx, prefs.ChatID, text); err != nil {
			s.logger.Error("Failed to send digest",
				zap.Int64("owner_id", prefs.OwnerID),
				zap.Int64("chat_id", prefs.ChatID),
				zap.Error(err))
			continue
		}
		s.logger.Info("Digest sent", zap.Int64("owner_id", prefs.OwnerID), zap.Int("events", n))
	}
	return nil
}

// AgendaFor loads an owner's events in [from, to) with their notes and
// renders them. It also returns the number of events.
func AgendaFor(ctx context.Context, store storage.CalendarStorage, ownerID int64, from, to time.Time) (string, int, error) {
	events, err := store.ListEvents(ctx, ownerID, from, to)
	if err != nil {
		return "", 0, err
	}

	notes := make(map[uuid.UUID]*models.MeetingNote, len(events))
	for _, e := range events {
		note, err := store.GetMeetingNote(ctx, e.ID)
		if err != nil {
			return "", 0, err
		}
		notes[e.ID] = note
	}
	return BuildDigest(events, notes), len(events), nil
}

// Today returns the bounds of t's local day.
func Today(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
