// Package postgres implements the engine's record store ports on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medagenda/syncengine/internal/core/domain"
	"github.com/medagenda/syncengine/internal/core/ports"
)

type pgRecordStore struct {
	db *pgxpool.Pool
}

// NewPgRecordStore creates the PostgreSQL-backed record store.
func NewPgRecordStore(db *pgxpool.Pool) ports.RecordStore {
	return &pgRecordStore{db: db}
}

func (r *pgRecordStore) SaveAppointment(ctx context.Context, appt *domain.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, date, time, duration_minutes, type, notes,
			calendar_synced, calendar_event_ref, message_sent, message_sent_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			date = EXCLUDED.date,
			time = EXCLUDED.time,
			duration_minutes = EXCLUDED.duration_minutes,
			type = EXCLUDED.type,
			notes = EXCLUDED.notes,
			calendar_synced = EXCLUDED.calendar_synced,
			calendar_event_ref = EXCLUDED.calendar_event_ref,
			message_sent = EXCLUDED.message_sent,
			message_sent_at = EXCLUDED.message_sent_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		appt.ID, appt.PatientID, appt.Date, appt.Time, appt.DurationMinutes, appt.Type, appt.Notes,
		appt.CalendarSynced, appt.CalendarEventRef, appt.MessageSent, appt.MessageSentAt,
		appt.CreatedAt, appt.UpdatedAt,
	)
	return err
}

func (r *pgRecordStore) GetAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	appt := &domain.Appointment{}
	query := `
		SELECT id, patient_id, date, time, duration_minutes, type, notes,
		       calendar_synced, calendar_event_ref, message_sent, message_sent_at,
		       created_at, updated_at
		FROM appointments WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&appt.ID, &appt.PatientID, &appt.Date, &appt.Time, &appt.DurationMinutes, &appt.Type, &appt.Notes,
		&appt.CalendarSynced, &appt.CalendarEventRef, &appt.MessageSent, &appt.MessageSentAt,
		&appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return appt, nil
}

func (r *pgRecordStore) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgRecordStore) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	p := &domain.Patient{}
	query := `SELECT id, name, phone, email FROM patients WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Phone, &p.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *pgRecordStore) SaveNotification(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (
			id, patient_id, appointment_id, message, type, status, sent_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			sent_at = EXCLUDED.sent_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		n.ID, n.PatientID, n.AppointmentID, n.Message, n.Type, n.Status, n.SentAt,
		n.CreatedAt, n.UpdatedAt,
	)
	return err
}

func (r *pgRecordStore) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	n := &domain.Notification{}
	query := `
		SELECT id, patient_id, appointment_id, message, type, status, sent_at,
		       created_at, updated_at
		FROM notifications WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.PatientID, &n.AppointmentID, &n.Message, &n.Type, &n.Status, &n.SentAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *pgRecordStore) UpdateNotificationStatus(ctx context.Context, id string, status domain.NotificationStatus, sentAt *time.Time) error {
	now := time.Now().UTC()
	query := `
		UPDATE notifications
		SET status = $2, sent_at = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, status, sentAt, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
