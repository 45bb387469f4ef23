package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/storage/migrations"
)

const pqForeignKeyViolation = "23503"

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

// URL renders the config as a postgres:// connection URL.
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + strconv.Itoa(c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.URL())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("dbname", config.DBName))

	return &PostgresStorage{db: db}, nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(config DatabaseConfig) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, config.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetPrefs(ctx context.Context, ownerID int64) (*models.Prefs, error) {
	query := `
		SELECT owner_id, api_key, manager, team, channels, chat_id, updated_at
		FROM prefs
		WHERE owner_id = $1`

	p := &models.Prefs{}
	err := s.db.QueryRowContext(ctx, query, ownerID).Scan(
		&p.OwnerID, &p.APIKey, &p.Manager, &p.Team, &p.Channels, &p.ChatID, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying prefs: %w", err)
	}
	return p, nil
}

func (s *PostgresStorage) SavePrefs(ctx context.Context, prefs *models.Prefs) error {
	query := `
		INSERT INTO prefs (owner_id, api_key, manager, team, channels, chat_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (owner_id) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			manager = EXCLUDED.manager,
			team = EXCLUDED.team,
			channels = EXCLUDED.channels,
			chat_id = EXCLUDED.chat_id,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`

	err := s.db.QueryRowContext(ctx, query,
		prefs.OwnerID, prefs.APIKey, prefs.Manager, prefs.Team, prefs.Channels, prefs.ChatID,
	).Scan(&prefs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error saving prefs: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListPrefs(ctx context.Context) ([]*models.Prefs, error) {
	query := `
		SELECT owner_id, api_key, manager, team, channels, chat_id, updated_at
		FROM prefs
		ORDER BY owner_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying prefs: %w", err)
	}
	defer rows.Close()

	out := []*models.Prefs{}
	for rows.Next() {
		p := &models.Prefs{}
		if err := rows.Scan(&p.OwnerID, &p.APIKey, &p.Manager, &p.Team, &p.Channels, &p.ChatID, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning prefs: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) GetDiaryEntry(ctx context.Context, ownerID int64, date string) (*models.DiaryEntry, error) {
	query := `
		SELECT owner_id, to_char(entry_date, 'YYYY-MM-DD'), text, updated_at
		FROM diary_entries
		WHERE owner_id = $1 AND entry_date = $2::date`

	e := &models.DiaryEntry{}
	err := s.db.QueryRowContext(ctx, query, ownerID, date).Scan(&e.OwnerID, &e.Date, &e.Text, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying diary entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStorage) SaveDiaryEntry(ctx context.Context, entry *models.DiaryEntry) error {
	query := `
		INSERT INTO diary_entries (owner_id, entry_date, text, updated_at)
		VALUES ($1, $2::date, $3, NOW())
		ON CONFLICT (owner_id, entry_date) DO UPDATE SET
			text = EXCLUDED.text,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`

	err := s.db.QueryRowContext(ctx, query, entry.OwnerID, entry.Date, entry.Text).Scan(&entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error saving diary entry: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListDiaryEntries(ctx context.Context, ownerID int64, limit int) ([]*models.DiaryEntry, error) {
	query := `
		SELECT owner_id, to_char(entry_date, 'YYYY-MM-DD'), text, updated_at
		FROM diary_entries
		WHERE owner_id = $1
		ORDER BY entry_date DESC
		LIMIT NULLIF($2, 0)`

	rows, err := s.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying diary entries: %w", err)
	}
	defer rows.Close()

	out := []*models.DiaryEntry{}
	for rows.Next() {
		e := &models.DiaryEntry{}
		if err := rows.Scan(&e.OwnerID, &e.Date, &e.Text, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning diary entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) SaveEvent(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO calendar_events (id, owner_id, title, starts_at, ends_at, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			description = EXCLUDED.description`

	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.OwnerID, event.Title, event.Start, event.End, event.Description,
	)
	if err != nil {
		return fmt.Errorf("error saving event: %w", err)
	}
	return nil
}

func (s *PostgresStorage) DeleteEvent(ctx context.Context, ownerID int64, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) ListEvents(ctx context.Context, ownerID int64, from, to time.Time) ([]*models.CalendarEvent, error) {
	query := `
		SELECT id, owner_id, title, starts_at, ends_at, description
		FROM calendar_events
		WHERE owner_id = $1 AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at`

	rows, err := s.db.QueryContext(ctx, query, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()

	out := []*models.CalendarEvent{}
	for rows.Next() {
		e := &models.CalendarEvent{}
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Start, &e.End, &e.Description); err != nil {
			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) GetMeetingNote(ctx context.Context, eventID uuid.UUID) (*models.MeetingNote, error) {
	n := &models.MeetingNote{EventID: eventID}
	err := s.db.QueryRowContext(ctx,
		`SELECT needs_prep, notes FROM meeting_notes WHERE event_id = $1`, eventID,
	).Scan(&n.NeedsPrep, &n.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return n, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying meeting note: %w", err)
	}
	return n, nil
}

func (s *PostgresStorage) SaveMeetingNote(ctx context.Context, note *models.MeetingNote) error {
	query := `
		INSERT INTO meeting_notes (event_id, needs_prep, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO UPDATE SET
			needs_prep = EXCLUDED.needs_prep,
			notes = EXCLUDED.notes`

	_, err := s.db.ExecContext(ctx, query, note.EventID, note.NeedsPrep, note.Notes)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("error saving meeting note: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
