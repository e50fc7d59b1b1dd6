package domain

import "time"

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

type NotificationType string

const (
	NotificationTypeConfirmation NotificationType = "confirmation"
	NotificationTypeReminder     NotificationType = "reminder"
	NotificationTypeUpdate       NotificationType = "update"
	NotificationTypeCancel       NotificationType = "cancel"
	NotificationTypeCustom       NotificationType = "custom"
)

// Notification records one attempted or completed message. Message holds the
// already-rendered text; resends reuse it verbatim on the same row.
// SentAt is set iff Status is sent.
type Notification struct {
	ID            string             `json:"id"`
	PatientID     string             `json:"patient_id"`
	AppointmentID *string            `json:"appointment_id,omitempty"` // nil for custom notifications
	Message       string             `json:"message"`
	Type          NotificationType   `json:"type"`
	Status        NotificationStatus `json:"status"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
