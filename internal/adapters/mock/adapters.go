// Package mock provides simulated calendar and messaging adapters for
// development and local testing.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/syncengine/internal/core/domain"
)

// CalendarAdapter simulates a remote calendar.
type CalendarAdapter struct {
	logger    *slog.Logger
	failRate  float64 // 0.0 to 1.0
	latencyMs int
}

func NewCalendarAdapter(logger *slog.Logger, failRate float64, latencyMs int) *CalendarAdapter {
	return &CalendarAdapter{
		logger:    logger.With("adapter", "mock-calendar"),
		failRate:  failRate,
		latencyMs: latencyMs,
	}
}

func (a *CalendarAdapter) IsAuthenticated(ctx context.Context) bool { return true }

func (a *CalendarAdapter) CreateEvent(ctx context.Context, appt *domain.Appointment) (string, error) {
	a.sleep()
	if rand.Float64() < a.failRate {
		return "", fmt.Errorf("mock calendar simulated failure for appointment %s", appt.ID)
	}
	ref := "mockcal-" + uuid.NewString()
	a.logger.InfoContext(ctx, "Mock calendar event created", "event_ref", ref, "appointment_id", appt.ID)
	return ref, nil
}

func (a *CalendarAdapter) DeleteEvent(ctx context.Context, eventRef string) error {
	a.sleep()
	if rand.Float64() < a.failRate {
		return fmt.Errorf("mock calendar simulated delete failure for %s", eventRef)
	}
	a.logger.InfoContext(ctx, "Mock calendar event deleted", "event_ref", eventRef)
	return nil
}

func (a *CalendarAdapter) sleep() {
	if a.latencyMs > 0 {
		time.Sleep(time.Duration(a.latencyMs) * time.Millisecond)
	}
}

// MessagingAdapter simulates a chat channel that is always authenticated.
type MessagingAdapter struct {
	logger    *slog.Logger
	failRate  float64
	latencyMs int
}

func NewMessagingAdapter(logger *slog.Logger, failRate float64, latencyMs int) *MessagingAdapter {
	return &MessagingAdapter{
		logger:    logger.With("adapter", "mock-messaging"),
		failRate:  failRate,
		latencyMs: latencyMs,
	}
}

func (a *MessagingAdapter) IsEnabled() bool       { return true }
func (a *MessagingAdapter) IsAuthenticated() bool { return true }

func (a *MessagingAdapter) Authenticate(ctx context.Context) error { return nil }

func (a *MessagingAdapter) Send(ctx context.Context, phone, message string, msgType domain.NotificationType) error {
	if a.latencyMs > 0 {
		time.Sleep(time.Duration(a.latencyMs) * time.Millisecond)
	}
	if rand.Float64() < a.failRate {
		return fmt.Errorf("mock messaging simulated failure for %s", phone)
	}
	a.logger.InfoContext(ctx, "Mock message sent", "phone", phone, "type", msgType, "content_len", len(message))
	return nil
}
