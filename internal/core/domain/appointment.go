package domain

import "time"

// Appointment is one scheduled visit. The orchestrator owns the four sync
// fields (CalendarSynced, CalendarEventRef, MessageSent, MessageSentAt);
// every other field comes from the caller's payload.
type Appointment struct {
	ID               string     `json:"id"`
	PatientID        string     `json:"patient_id"`
	Date             string     `json:"date"` // YYYY-MM-DD
	Time             string     `json:"time"` // HH:MM, 24h
	DurationMinutes  int        `json:"duration_minutes"`
	Type             string     `json:"type"`
	Notes            string     `json:"notes,omitempty"`
	CalendarSynced   bool       `json:"calendar_synced"`
	CalendarEventRef *string    `json:"calendar_event_ref,omitempty"`
	MessageSent      bool       `json:"message_sent"`
	MessageSentAt    *time.Time `json:"message_sent_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Patient is a read-only collaborator; the engine never mutates patients.
type Patient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"` // required for messaging
	Email string `json:"email,omitempty"`
}
