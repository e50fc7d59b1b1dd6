package http

import (
	"time"

	"github.com/medagenda/syncengine/internal/core/domain"
)

// CreateAppointmentRequest for POST /appointments.
type CreateAppointmentRequest struct {
	PatientID       string `json:"patient_id" validate:"required"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	Type            string `json:"type" validate:"required,max=100"`
	Notes           string `json:"notes,omitempty" validate:"max=2000"`
}

// UpdateAppointmentRequest for PUT /appointments/{appointmentID}.
type UpdateAppointmentRequest struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string `json:"time" validate:"required,datetime=15:04"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	Type            string `json:"type" validate:"required,max=100"`
	Notes           string `json:"notes,omitempty" validate:"max=2000"`
	NotifyPatient   bool   `json:"notify_patient"`
}

// AppointmentResponse mirrors the stored appointment plus the outcome of the
// requested operation.
type AppointmentResponse struct {
	ID               string         `json:"id"`
	PatientID        string         `json:"patient_id"`
	Date             string         `json:"date"`
	Time             string         `json:"time"`
	DurationMinutes  int            `json:"duration_minutes"`
	Type             string         `json:"type"`
	Notes            string         `json:"notes,omitempty"`
	CalendarSynced   bool           `json:"calendar_synced"`
	CalendarEventRef *string        `json:"calendar_event_ref,omitempty"`
	MessageSent      bool           `json:"message_sent"`
	MessageSentAt    *time.Time     `json:"message_sent_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Outcome          domain.Outcome `json:"outcome"`
}

// DeleteAppointmentResponse for DELETE /appointments/{appointmentID}.
type DeleteAppointmentResponse struct {
	Deleted bool           `json:"deleted"`
	Outcome domain.Outcome `json:"outcome"`
}

// NotificationResponse for resend flows.
type NotificationResponse struct {
	ID            string                    `json:"id"`
	PatientID     string                    `json:"patient_id"`
	AppointmentID *string                   `json:"appointment_id,omitempty"`
	Message       string                    `json:"message"`
	Type          domain.NotificationType   `json:"type"`
	Status        domain.NotificationStatus `json:"status"`
	SentAt        *time.Time                `json:"sent_at,omitempty"`
	// Result is sent, failed or unavailable; unavailable means no attempt was
	// made and the caller should authenticate the messaging session.
	Result string `json:"result"`
}

// GenericErrorResponse for API errors.
type GenericErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(appt *domain.Appointment, outcome domain.Outcome) AppointmentResponse {
	return AppointmentResponse{
		ID:               appt.ID,
		PatientID:        appt.PatientID,
		Date:             appt.Date,
		Time:             appt.Time,
		DurationMinutes:  appt.DurationMinutes,
		Type:             appt.Type,
		Notes:            appt.Notes,
		CalendarSynced:   appt.CalendarSynced,
		CalendarEventRef: appt.CalendarEventRef,
		MessageSent:      appt.MessageSent,
		MessageSentAt:    appt.MessageSentAt,
		CreatedAt:        appt.CreatedAt,
		UpdatedAt:        appt.UpdatedAt,
		Outcome:          outcome,
	}
}
