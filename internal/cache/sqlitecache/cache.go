// Package sqlitecache mirrors appointments into a local SQLite file so the
// UI has something to show when the primary store is unreachable. The mirror
// is write-only from the engine's point of view and never authoritative.
package sqlitecache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/medagenda/syncengine/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	type TEXT NOT NULL,
	notes TEXT,
	calendar_synced INTEGER NOT NULL DEFAULT 0,
	calendar_event_ref TEXT,
	message_sent INTEGER NOT NULL DEFAULT 0,
	message_sent_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

type Cache struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens (and if needed initializes) the cache file.
func New(path string, logger *slog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("open fallback cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init fallback cache schema: %w", err)
	}
	return &Cache{db: db, logger: logger.With("service", "fallback_cache")}, nil
}

func (c *Cache) Upsert(ctx context.Context, appt *domain.Appointment) error {
	query := `
		INSERT OR REPLACE INTO appointments (
			id, patient_id, date, time, duration_minutes, type, notes,
			calendar_synced, calendar_event_ref, message_sent, message_sent_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, query,
		appt.ID, appt.PatientID, appt.Date, appt.Time, appt.DurationMinutes, appt.Type, appt.Notes,
		appt.CalendarSynced, appt.CalendarEventRef, appt.MessageSent, appt.MessageSentAt,
		appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheWrite, err)
	}
	return nil
}

func (c *Cache) Remove(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheWrite, err)
	}
	return nil
}

// List returns the mirrored appointments. Only degraded readers outside the
// engine use this; the orchestrator never reads the cache.
func (c *Cache) List(ctx context.Context) ([]*domain.Appointment, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, patient_id, date, time, duration_minutes, type, notes,
		       calendar_synced, calendar_event_ref, message_sent, message_sent_at,
		       created_at, updated_at
		FROM appointments ORDER BY date, time
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []*domain.Appointment
	for rows.Next() {
		appt := &domain.Appointment{}
		var notes sql.NullString
		if err := rows.Scan(
			&appt.ID, &appt.PatientID, &appt.Date, &appt.Time, &appt.DurationMinutes, &appt.Type, &notes,
			&appt.CalendarSynced, &appt.CalendarEventRef, &appt.MessageSent, &appt.MessageSentAt,
			&appt.CreatedAt, &appt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		appt.Notes = notes.String
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func (c *Cache) Close() error {
	return c.db.Close()
}
