package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/advisor"
	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/storage"
	"github.com/xaenox/mgmt-boost/internal/tone"
)

const (
	defaultDiaryLimit = 30
	maxDiaryLimit     = 365
)

type handlers struct {
	booster Booster
	advisor Advisor
	store   storage.Storage
	ownerID int64
	logger  *zap.Logger
}

type boostRequest struct {
	Text    string             `json:"text"`
	Channel models.ChannelInfo `json:"channel"`
}

func (h *handlers) Boost(c fiber.Ctx) error {
	var req boostRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if strings.TrimSpace(req.Text) == "" {
		return jsonError(c, fiber.StatusBadRequest, "text is required")
	}

	result := h.booster.Boost(c.Context(), req.Text, req.Channel)
	return jsonSuccess(c, result)
}

// rewriteStatus maps a remote failure to the response status.
var rewriteStatus = map[advisor.Kind]int{
	advisor.KindCredentialMissing: fiber.StatusPreconditionFailed,
	advisor.KindTimeout:           fiber.StatusGatewayTimeout,
	advisor.KindNetwork:           fiber.StatusBadGateway,
	advisor.KindValidation:        fiber.StatusBadGateway,
}

func (h *handlers) Rewrite(c fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON")
	}
	if strings.TrimSpace(req.Text) == "" {
		return jsonError(c, fiber.StatusBadRequest, "text is required")
	}

	rewrite, err := h.advisor.Rewrite(c.Context(), req.Text)
	if err != nil {
		status, ok := rewriteStatus[advisor.KindOf(err)]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		h.logger.Warn("Rewrite failed", zap.Error(err))
		return jsonError(c, status, err.Error())
	}
	return jsonSuccess(c, rewrite)
}

type scoreResponse struct {
	models.ToneSignal
	Label string `json:"label"`
}

func (h *handlers) Score(c fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON")
	}

	signal := tone.Score(req.Text)
	return jsonSuccess(c, scoreResponse{
		ToneSignal: signal,
		Label:      tone.Describe(signal.CompositeScore),
	})
}

func (h *handlers) ClearContext(c fiber.Ctx) error {
	h.advisor.ClearContext()
	return jsonSuccess(c, fiber.Map{"cleared": true})
}

type prefsResponse struct {
	Manager   string    `json:"manager"`
	Team      string    `json:"team"`
	Channels  string    `json:"channels"`
	HasAPIKey bool      `json:"has_api_key"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newPrefsResponse(p *models.Prefs) prefsResponse {
	return prefsResponse{
		Manager:   p.Manager,
		Team:      p.Team,
		Channels:  p.Channels,
		HasAPIKey: p.HasAPIKey(),
		UpdatedAt: p.UpdatedAt,
	}
}

// loadPrefs returns the owner's prefs, or empty ones if none are stored yet.
func (h *handlers) loadPrefs(c fiber.Ctx) (*models.Prefs, error) {
	prefs, err := h.store.GetPrefs(c.Context(), h.ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.Prefs{OwnerID: h.ownerID}, nil
	}
	return prefs, err
}

func (h *handlers) GetPrefs(c fiber.Ctx) error {
	prefs, err := h.loadPrefs(c)
	if err != nil {
		h.logger.Error("Failed to load prefs", zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to load prefs")
	}
	return jsonSuccess(c, newPrefsResponse(prefs))
}

type savePrefsRequest struct {
	// APIKey is left unchanged when omitted; an empty string clears it.
	APIKey   *string `json:"api_key"`
	Manager  string  `json:"manager"`
	Team     string  `json:"team"`
	Channels string  `json:"channels"`
}

func (h *handlers) SavePrefs(c fiber.Ctx) error {
	var req savePrefsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON")
	}

	prefs, err := h.loadPrefs(c)
	if err != nil {
		h.logger.Error("Failed to load prefs", zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to load prefs")
	}

	prefs.Manager = req.Manager
	prefs.Team = req.Team
	prefs.Channels = req.Channels
	if req.APIKey != nil {
		prefs.APIKey = strings.TrimSpace(*req.APIKey)
	}

	if err := h.store.SavePrefs(c.Context(), prefs); err != nil {
		h.logger.Error("Failed to save prefs", zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to save prefs")
	}
	if req.APIKey != nil {
		h.advisor.SetAPIKey(prefs.APIKey)
	}

	return jsonSuccess(c, newPrefsResponse(prefs))
}

func (h *handlers) GetDiary(c fiber.Ctx) error {
	date := c.Params("date")
	if !storage.ValidDiaryDate(date) {
		return jsonError(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	entry, err := h.store.GetDiaryEntry(c.Context(), h.ownerID, date)
	if errors.Is(err, storage.ErrNotFound) {
		return jsonError(c, fiber.StatusNotFound, "no entry for "+date)
	}
	if err != nil {
		h.logger.Error("Failed to load diary entry", zap.String("date", date), zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to load diary entry")
	}
	return jsonSuccess(c, entry)
}

func (h *handlers) SaveDiary(c fiber.Ctx) error {
	date := c.Params("date")
	if !storage.ValidDiaryDate(date) {
		return jsonError(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON")
	}

	entry := &models.DiaryEntry{OwnerID: h.ownerID, Date: date, Text: req.Text}
	if err := h.store.SaveDiaryEntry(c.Context(), entry); err != nil {
		h.logger.Error("Failed to save diary entry", zap.String("date", date), zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to save diary entry")
	}
	return jsonSuccess(c, entry)
}

func (h *handlers) ListDiary(c fiber.Ctx) error {
	limit := defaultDiaryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return jsonError(c, fiber.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxDiaryLimit)
	}

	entries, err := h.store.ListDiaryEntries(c.Context(), h.ownerID, limit)
	if err != nil {
		h.logger.Error("Failed to list diary entries", zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to list diary entries")
	}
	return jsonSuccess(c, entries)
}

type eventResponse struct {
	*models.CalendarEvent
	MeetingType models.MeetingType `json:"meeting_type"`
	NeedsPrep   bool               `json:"needs_prep"`
}

// dayBounds returns local midnight of t's day and the end of the following day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 2)
}

func (h *handlers) ListEvents(c fiber.Ctx) error {
	from, to := dayBounds(time.Now())

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "from must be RFC3339")
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "to must be RFC3339")
		}
		to = t
	}
	if !to.After(from) {
		return jsonError(c, fiber.StatusBadRequest, "to must be after from")
	}

	events, err := h.store.ListEvents(c.Context(), h.ownerID, from, to)
	if err != nil {
		h.logger.Error("Failed to list events", zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to list events")
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		note, err := h.store.GetMeetingNote(c.Context(), e.ID)
		if err != nil {
			h.logger.Error("Failed to load meeting note", zap.String("event_id", e.ID.String()), zap.Error(err))
			return jsonError(c, fiber.StatusInternalServerError, "failed to list events")
		}
		out = append(out, eventResponse{CalendarEvent: e, MeetingType: e.Type(), NeedsPrep: note.NeedsPrep})
	}
	return jsonSuccess(c, out)
}

type createEventRequest struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
}

func (h *handlers) CreateEvent(c fiber.Ctx) error {
	var req createEventRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return jsonError(c, fiber.StatusBadRequest, "title is required")
	}
	if req.Start.IsZero() {
		return jsonError(c, fiber.StatusBadRequest, "start is required")
	}
	if req.End.IsZero() {
		req.End = req.Start.Add(30 * time.Minute)
	}
	if !req.End.After(req.Start) {
		return jsonError(c, fiber.StatusBadRequest, "end must be after start")
	}

	event := &models.CalendarEvent{
		OwnerID:     h.ownerID,
		Title:       req.Title,
		Start:       req.Start,
		End:         req.End,
		Description: req.Description,
	}
	if err := h.store.SaveEvent(c.Context(), event); err != nil {
		h.logger.Error("Failed to save event", zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to save event")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   eventResponse{CalendarEvent: event, MeetingType: event.Type()},
	})
}

func (h *handlers) DeleteEvent(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid event id")
	}

	err = h.store.DeleteEvent(c.Context(), h.ownerID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return jsonError(c, fiber.StatusNotFound, "event not found")
	}
	if err != nil {
		h.logger.Error("Failed to delete event", zap.String("event_id", id.String()), zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to delete event")
	}
	return jsonSuccess(c, fiber.Map{"deleted": true})
}

func (h *handlers) GetNote(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid event id")
	}

	note, err := h.store.GetMeetingNote(c.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load meeting note", zap.String("event_id", id.String()), zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to load meeting note")
	}
	return jsonSuccess(c, note)
}

func (h *handlers) SaveNote(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid event id")
	}

	var req struct {
		NeedsPrep bool   `json:"needs_prep"`
		Notes     string `json:"notes"`
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid JSON")
	}

	note := &models.MeetingNote{EventID: id, NeedsPrep: req.NeedsPrep, Notes: req.Notes}
	err = h.store.SaveMeetingNote(c.Context(), note)
	if errors.Is(err, storage.ErrNotFound) {
		return jsonError(c, fiber.StatusNotFound, "event not found")
	}
	if err != nil {
		h.logger.Error("Failed to save meeting note", zap.String("event_id", id.String()), zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to save meeting note")
	}
	return jsonSuccess(c, note)
}
