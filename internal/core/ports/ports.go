// Package ports declares the interfaces the sync engine consumes. Concrete
// implementations live under internal/repository, internal/cache and
// internal/adapters; tests substitute testify mocks.
package ports

import (
	"context"
	"time"

	"github.com/medagenda/syncengine/internal/core/domain"
)

// RecordStore is the authoritative CRUD store for appointments, patients and
// notifications. All errors are surfaced; the orchestrator decides fatality.
type RecordStore interface {
	SaveAppointment(ctx context.Context, appt *domain.Appointment) error
	GetAppointment(ctx context.Context, id string) (*domain.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	GetPatient(ctx context.Context, id string) (*domain.Patient, error)
	SaveNotification(ctx context.Context, n *domain.Notification) error
	GetNotification(ctx context.Context, id string) (*domain.Notification, error)
	UpdateNotificationStatus(ctx context.Context, id string, status domain.NotificationStatus, sentAt *time.Time) error
}

// FallbackCache is a best-effort local mirror of appointments. Errors are
// logged by the caller and never abort an operation. The engine only writes
// to it; degraded readers outside the engine may consult it.
type FallbackCache interface {
	Upsert(ctx context.Context, appt *domain.Appointment) error
	Remove(ctx context.Context, id string) error
}

// CalendarAdapter fronts a remote calendar holding one event per appointment.
type CalendarAdapter interface {
	IsAuthenticated(ctx context.Context) bool
	// CreateEvent returns the provider's opaque event reference.
	CreateEvent(ctx context.Context, appt *domain.Appointment) (string, error)
	DeleteEvent(ctx context.Context, eventRef string) error
}

// MessagingAdapter fronts a remote chat channel with session state. Callers
// must serialize Authenticate against concurrent Sends on the same instance.
type MessagingAdapter interface {
	IsEnabled() bool
	IsAuthenticated() bool
	Authenticate(ctx context.Context) error
	Send(ctx context.Context, phone, message string, msgType domain.NotificationType) error
}

// EntitlementSource yields the currently installed license. A nil license
// with nil error means none is installed.
type EntitlementSource interface {
	CurrentLicense(ctx context.Context) (*domain.License, error)
}
