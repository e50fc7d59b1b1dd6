package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/syncengine/internal/core/domain"
	"github.com/medagenda/syncengine/internal/core/ports"
)

// Dispatcher sends a single notification through the messaging adapter and
// records the attempt on the Notification row. It is used by the
// orchestrator and by the manual resend flow; both paths share the same
// state machine: pending -> sent | failed, failed -> pending on resend.
type Dispatcher struct {
	store     ports.RecordStore
	messaging ports.MessagingAdapter
	guard     *SessionGuard
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewDispatcher(
	store ports.RecordStore,
	messaging ports.MessagingAdapter,
	guard *SessionGuard,
	logger *slog.Logger,
	timeout time.Duration,
) *Dispatcher {
	if guard == nil {
		guard = NewSessionGuard()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		store:     store,
		messaging: messaging,
		guard:     guard,
		logger:    logger.With("service", "notification_dispatcher"),
		timeout:   timeout,
		now:       time.Now,
	}
}

// Dispatch persists n as pending and attempts the send. When the adapter is
// disabled or unauthenticated no send is attempted: the row stays pending and
// ErrMessagingUnavailable is returned so the caller can prompt for
// authentication rather than report a failure.
func (d *Dispatcher) Dispatch(ctx context.Context, n *domain.Notification, patient *domain.Patient) (*domain.Notification, error) {
	now := d.now().UTC()
	if n.ID == "" {
		n.ID = uuid.NewString()
		n.CreatedAt = now
	}
	n.Status = domain.NotificationStatusPending
	n.SentAt = nil
	n.UpdatedAt = now

	if err := d.store.SaveNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("%w: save notification %s: %v", domain.ErrPersistence, n.ID, err)
	}

	if !d.messaging.IsEnabled() || !d.messaging.IsAuthenticated() {
		d.logger.InfoContext(ctx, "Messaging adapter unavailable, notification left pending",
			"notification_id", n.ID, "enabled", d.messaging.IsEnabled())
		notificationDispatchCounter.WithLabelValues(string(n.Type), "unavailable").Inc()
		return n, fmt.Errorf("%w: notification %s left pending", domain.ErrMessagingUnavailable, n.ID)
	}

	// The send must survive the caller hanging up, but still honors a budget.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	start := d.now()
	sendErr := d.guard.Send(func() error {
		return d.messaging.Send(sendCtx, patient.Phone, n.Message, n.Type)
	})
	adapterRequestDurationHist.WithLabelValues("messaging", "send").Observe(time.Since(start).Seconds())

	if sendErr != nil {
		d.logger.ErrorContext(ctx, "Messaging adapter send failed",
			"error", sendErr, "notification_id", n.ID, "type", n.Type)
		n.Status = domain.NotificationStatusFailed
		n.UpdatedAt = d.now().UTC()
		if err := d.store.UpdateNotificationStatus(ctx, n.ID, domain.NotificationStatusFailed, nil); err != nil {
			d.logger.ErrorContext(ctx, "Failed to record notification failure", "error", err, "notification_id", n.ID)
		}
		notificationDispatchCounter.WithLabelValues(string(n.Type), "failed").Inc()
		sideEffectFailuresCounter.WithLabelValues("messaging").Inc()
		return n, fmt.Errorf("%w: %v", domain.ErrMessagingDispatch, sendErr)
	}

	sentAt := d.now().UTC()
	n.Status = domain.NotificationStatusSent
	n.SentAt = &sentAt
	n.UpdatedAt = sentAt
	if err := d.store.UpdateNotificationStatus(ctx, n.ID, domain.NotificationStatusSent, &sentAt); err != nil {
		return n, fmt.Errorf("%w: record sent status for %s: %v", domain.ErrPersistence, n.ID, err)
	}
	notificationDispatchCounter.WithLabelValues(string(n.Type), "sent").Inc()
	d.logger.InfoContext(ctx, "Notification sent", "notification_id", n.ID, "type", n.Type)
	return n, nil
}

// Resend re-dispatches an existing notification on the same row, reusing the
// already-rendered message text. Sent is terminal.
func (d *Dispatcher) Resend(ctx context.Context, notificationID string) (*domain.Notification, error) {
	n, err := d.store.GetNotification(ctx, notificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load notification %s: %v", domain.ErrPersistence, notificationID, err)
	}
	if n.Status == domain.NotificationStatusSent {
		return n, fmt.Errorf("%w: %s", domain.ErrAlreadySent, notificationID)
	}

	patient, err := d.store.GetPatient(ctx, n.PatientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load patient %s: %v", domain.ErrPersistence, n.PatientID, err)
	}

	return d.Dispatch(ctx, n, patient)
}

// AuthenticateMessaging drives the messaging adapter's login flow, holding
// the session guard's write side so no send races the login.
func (d *Dispatcher) AuthenticateMessaging(ctx context.Context) error {
	return d.guard.Authenticate(func() error {
		return d.messaging.Authenticate(ctx)
	})
}
