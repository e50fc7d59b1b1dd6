package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/syncengine/internal/core/domain"
	"github.com/medagenda/syncengine/internal/core/entitlement"
	"github.com/medagenda/syncengine/internal/core/ports"
	"github.com/medagenda/syncengine/internal/core/template"
)

const (
	subjectAppointmentSynced  = "appointments.synced"
	subjectAppointmentDeleted = "appointments.deleted"
)

// EventPublisher publishes engine events on the message bus. Best-effort:
// publish failures are logged, never surfaced.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// Orchestrator sequences the record store, fallback cache, calendar adapter
// and notification dispatcher for every appointment mutation. Only record
// store failures (and unknown ids) abort a call; every other side effect
// degrades into the returned Outcome.
type Orchestrator struct {
	store           ports.RecordStore
	cache           ports.FallbackCache
	calendar        ports.CalendarAdapter
	gate            *entitlement.Gate
	templates       *template.Resolver
	dispatcher      *Dispatcher
	events          EventPublisher
	logger          *slog.Logger
	calendarTimeout time.Duration
	now             func() time.Time
}

func NewOrchestrator(
	store ports.RecordStore,
	cache ports.FallbackCache,
	calendar ports.CalendarAdapter,
	gate *entitlement.Gate,
	templates *template.Resolver,
	dispatcher *Dispatcher,
	events EventPublisher,
	logger *slog.Logger,
	calendarTimeout time.Duration,
) *Orchestrator {
	if calendarTimeout <= 0 {
		calendarTimeout = 30 * time.Second
	}
	return &Orchestrator{
		store:           store,
		cache:           cache,
		calendar:        calendar,
		gate:            gate,
		templates:       templates,
		dispatcher:      dispatcher,
		events:          events,
		logger:          logger.With("service", "sync_orchestrator"),
		calendarTimeout: calendarTimeout,
		now:             time.Now,
	}
}

// CreateAppointment persists the appointment (fatal on failure), mirrors it
// to the fallback cache, then best-effort syncs the calendar and sends a
// confirmation message, each under the entitlement gate. The returned
// appointment reflects whichever side effects succeeded.
func (o *Orchestrator) CreateAppointment(ctx context.Context, appt *domain.Appointment, patient *domain.Patient) (*domain.Appointment, domain.Outcome, error) {
	outcome := domain.Outcome{
		Calendar:  domain.SideEffectSkipped,
		Messaging: domain.SideEffectSkipped,
		Cache:     domain.SideEffectOK,
	}

	now := o.now().UTC()
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.PatientID == "" {
		appt.PatientID = patient.ID
	}
	appt.CreatedAt = now
	appt.UpdatedAt = now
	appt.CalendarSynced = false
	appt.CalendarEventRef = nil
	appt.MessageSent = false
	appt.MessageSentAt = nil

	if err := o.store.SaveAppointment(ctx, appt); err != nil {
		outcome.Status = domain.OutcomePersistenceFailed
		appointmentOpsCounter.WithLabelValues("create", string(outcome.Status)).Inc()
		return nil, outcome, fmt.Errorf("%w: save appointment %s: %v", domain.ErrPersistence, appt.ID, err)
	}

	outcome.Cache = o.mirror(ctx, appt, &outcome)

	ent := o.gate.Resolve(ctx, now)
	if ent.CalendarEnabled {
		outcome.Calendar = o.syncCalendar(ctx, appt, &outcome)
	}
	if ent.MessagingEnabled {
		outcome.Messaging = o.sendAppointmentMessage(ctx, appt, patient, domain.NotificationTypeConfirmation, &outcome)
	}

	outcome.Classify()
	appointmentOpsCounter.WithLabelValues("create", string(outcome.Status)).Inc()
	o.publish(ctx, subjectAppointmentSynced, appt, outcome)
	return appt, outcome, nil
}

// UpdateAppointment applies a caller-supplied payload to an existing
// appointment. A previously synced calendar event is deleted before a fresh
// one is created; an in-place provider update is never attempted. Messaging
// only runs when notifyPatient is set.
func (o *Orchestrator) UpdateAppointment(ctx context.Context, appt *domain.Appointment, patient *domain.Patient, notifyPatient bool) (*domain.Appointment, domain.Outcome, error) {
	outcome := domain.Outcome{
		Calendar:  domain.SideEffectSkipped,
		Messaging: domain.SideEffectSkipped,
		Cache:     domain.SideEffectOK,
	}

	existing, err := o.getAppointment(ctx, appt.ID)
	if err != nil {
		outcome.Status = domain.OutcomePersistenceFailed
		appointmentOpsCounter.WithLabelValues("update", string(outcome.Status)).Inc()
		return nil, outcome, err
	}

	// Sync state is owned by the orchestrator; the payload can never forge it.
	appt.CalendarSynced = existing.CalendarSynced
	appt.CalendarEventRef = existing.CalendarEventRef
	appt.MessageSent = existing.MessageSent
	appt.MessageSentAt = existing.MessageSentAt
	appt.CreatedAt = existing.CreatedAt
	if appt.PatientID == "" {
		appt.PatientID = existing.PatientID
	}
	now := o.now().UTC()
	appt.UpdatedAt = now

	if err := o.store.SaveAppointment(ctx, appt); err != nil {
		outcome.Status = domain.OutcomePersistenceFailed
		appointmentOpsCounter.WithLabelValues("update", string(outcome.Status)).Inc()
		return nil, outcome, fmt.Errorf("%w: save appointment %s: %v", domain.ErrPersistence, appt.ID, err)
	}
	outcome.Cache = o.mirror(ctx, appt, &outcome)

	ent := o.gate.Resolve(ctx, now)
	if ent.CalendarEnabled {
		outcome.Calendar = o.resyncCalendar(ctx, appt, &outcome)
	}
	if notifyPatient && ent.MessagingEnabled {
		outcome.Messaging = o.sendAppointmentMessage(ctx, appt, patient, domain.NotificationTypeUpdate, &outcome)
	}

	outcome.Classify()
	appointmentOpsCounter.WithLabelValues("update", string(outcome.Status)).Inc()
	o.publish(ctx, subjectAppointmentSynced, appt, outcome)
	return appt, outcome, nil
}

// DeleteAppointment best-effort removes the remote calendar event and sends a
// cancel message, then deletes the record (fatal on failure) and evicts the
// cache mirror. The appointment is never left behind because a third-party
// call failed.
func (o *Orchestrator) DeleteAppointment(ctx context.Context, id string, patient *domain.Patient, notifyPatient bool) (domain.Outcome, error) {
	outcome := domain.Outcome{
		Calendar:  domain.SideEffectSkipped,
		Messaging: domain.SideEffectSkipped,
		Cache:     domain.SideEffectOK,
	}

	appt, err := o.getAppointment(ctx, id)
	if err != nil {
		outcome.Status = domain.OutcomePersistenceFailed
		appointmentOpsCounter.WithLabelValues("delete", string(outcome.Status)).Inc()
		return outcome, err
	}

	if appt.CalendarSynced && appt.CalendarEventRef != nil {
		outcome.Calendar = o.removeCalendarEvent(ctx, *appt.CalendarEventRef, &outcome)
	}

	now := o.now().UTC()
	if notifyPatient {
		ent := o.gate.Resolve(ctx, now)
		if ent.MessagingEnabled {
			outcome.Messaging = o.sendAppointmentMessage(ctx, appt, patient, domain.NotificationTypeCancel, &outcome)
		}
	}

	if err := o.store.DeleteAppointment(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			outcome.Status = domain.OutcomePersistenceFailed
			appointmentOpsCounter.WithLabelValues("delete", string(outcome.Status)).Inc()
			return outcome, err
		}
		outcome.Status = domain.OutcomePersistenceFailed
		appointmentOpsCounter.WithLabelValues("delete", string(outcome.Status)).Inc()
		return outcome, fmt.Errorf("%w: delete appointment %s: %v", domain.ErrPersistence, id, err)
	}

	if o.cache != nil {
		if err := o.cache.Remove(ctx, id); err != nil {
			o.logger.WarnContext(ctx, "Fallback cache eviction failed", "error", err, "appointment_id", id)
			sideEffectFailuresCounter.WithLabelValues("cache").Inc()
			outcome.Cache = domain.SideEffectFailed
			outcome.Detail = append(outcome.Detail, fmt.Sprintf("cache: %v", err))
		}
	}

	outcome.Classify()
	appointmentOpsCounter.WithLabelValues("delete", string(outcome.Status)).Inc()
	o.publish(ctx, subjectAppointmentDeleted, appt, outcome)
	return outcome, nil
}

func (o *Orchestrator) getAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := o.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: appointment %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load appointment %s: %v", domain.ErrPersistence, id, err)
	}
	return appt, nil
}

// mirror writes the appointment to the fallback cache. Failures are logged
// and swallowed; the cache is a write-only shadow, never a source of truth.
func (o *Orchestrator) mirror(ctx context.Context, appt *domain.Appointment, outcome *domain.Outcome) domain.SideEffectResult {
	if o.cache == nil {
		return domain.SideEffectSkipped
	}
	if err := o.cache.Upsert(ctx, appt); err != nil {
		o.logger.WarnContext(ctx, "Fallback cache write failed", "error", err, "appointment_id", appt.ID)
		sideEffectFailuresCounter.WithLabelValues("cache").Inc()
		outcome.Detail = append(outcome.Detail, fmt.Sprintf("cache: %v", err))
		return domain.SideEffectFailed
	}
	return domain.SideEffectOK
}

// syncCalendar creates a remote event for a fresh appointment and persists
// the sync fields. Never fatal: a failure leaves calendarSynced=false and is
// retried naturally on the next update.
func (o *Orchestrator) syncCalendar(ctx context.Context, appt *domain.Appointment, outcome *domain.Outcome) domain.SideEffectResult {
	calCtx, cancel := o.sideEffectContext(ctx)
	defer cancel()

	if !o.calendar.IsAuthenticated(calCtx) {
		o.logger.InfoContext(ctx, "Calendar adapter not authenticated, skipping sync", "appointment_id", appt.ID)
		outcome.Detail = append(outcome.Detail, "calendar: not authenticated")
		return domain.SideEffectUnavailable
	}

	start := o.now()
	ref, err := o.calendar.CreateEvent(calCtx, appt)
	adapterRequestDurationHist.WithLabelValues("calendar", "create_event").Observe(time.Since(start).Seconds())
	if err != nil {
		o.logger.ErrorContext(ctx, "Calendar event creation failed", "error", err, "appointment_id", appt.ID)
		sideEffectFailuresCounter.WithLabelValues("calendar").Inc()
		outcome.Detail = append(outcome.Detail, fmt.Sprintf("calendar: %v", err))
		return domain.SideEffectFailed
	}

	appt.CalendarSynced = true
	appt.CalendarEventRef = &ref
	appt.UpdatedAt = o.now().UTC()
	if err := o.store.SaveAppointment(ctx, appt); err != nil {
		// The remote event exists but the flags could not be recorded; report
		// the sync as failed so the next update reconciles it.
		o.logger.ErrorContext(ctx, "Failed to persist calendar sync state", "error", err, "appointment_id", appt.ID, "event_ref", ref)
		appt.CalendarSynced = false
		appt.CalendarEventRef = nil
		outcome.Detail = append(outcome.Detail, fmt.Sprintf("calendar: persist sync state: %v", err))
		return domain.SideEffectFailed
	}
	o.mirror(ctx, appt, outcome)
	return domain.SideEffectOK
}

// resyncCalendar handles updates: delete the old event first (best-effort),
// then create a fresh one. Strictly ordered so two remote events never
// reference the same appointment.
func (o *Orchestrator) resyncCalendar(ctx context.Context, appt *domain.Appointment, outcome *domain.Outcome) domain.SideEffectResult {
	calCtx, cancel := o.sideEffectContext(ctx)
	defer cancel()

	if !o.calendar.IsAuthenticated(calCtx) {
		o.logger.InfoContext(ctx, "Calendar adapter not authenticated, skipping resync", "appointment_id", appt.ID)
		outcome.Detail = append(outcome.Detail, "calendar: not authenticated")
		return domain.SideEffectUnavailable
	}

	if appt.CalendarSynced && appt.CalendarEventRef != nil {
		start := o.now()
		if err := o.calendar.DeleteEvent(calCtx, *appt.CalendarEventRef); err != nil {
			o.logger.WarnContext(ctx, "Stale calendar event deletion failed", "error", err, "event_ref", *appt.CalendarEventRef)
		}
		adapterRequestDurationHist.WithLabelValues("calendar", "delete_event").Observe(time.Since(start).Seconds())
	}

	start := o.now()
	ref, err := o.calendar.CreateEvent(calCtx, appt)
	adapterRequestDurationHist.WithLabelValues("calendar", "create_event").Observe(time.Since(start).Seconds())
	if err != nil {
		o.logger.ErrorContext(ctx, "Calendar event recreation failed", "error", err, "appointment_id", appt.ID)
		sideEffectFailuresCounter.WithLabelValues("calendar").Inc()
		appt.CalendarSynced = false
		appt.CalendarEventRef = nil
		appt.UpdatedAt = o.now().UTC()
		if perr := o.store.SaveAppointment(ctx, appt); perr != nil {
			o.logger.ErrorContext(ctx, "Failed to persist cleared sync state", "error", perr, "appointment_id", appt.ID)
		}
		outcome.Detail = append(outcome.Detail, fmt.Sprintf("calendar: %v", err))
		return domain.SideEffectFailed
	}

	appt.CalendarSynced = true
	appt.CalendarEventRef = &ref
	appt.UpdatedAt = o.now().UTC()
	if err := o.store.SaveAppointment(ctx, appt); err != nil {
		o.logger.ErrorContext(ctx, "Failed to persist calendar sync state", "error", err, "appointment_id", appt.ID, "event_ref", ref)
		appt.CalendarSynced = false
		appt.CalendarEventRef = nil
		outcome.Detail = append(outcome.Detail, fmt.Sprintf("calendar: persist sync state: %v", err))
		return domain.SideEffectFailed
	}
	o.mirror(ctx, appt, outcome)
	return domain.SideEffectOK
}

func (o *Orchestrator) removeCalendarEvent(ctx context.Context, eventRef string, outcome *domain.Outcome) domain.SideEffectResult {
	calCtx, cancel := o.sideEffectContext(ctx)
	defer cancel()

	if !o.calendar.IsAuthenticated(calCtx) {
		outcome.Detail = append(outcome.Detail, "calendar: not authenticated")
		return domain.SideEffectUnavailable
	}

	start := o.now()
	err := o.calendar.DeleteEvent(calCtx, eventRef)
	adapterRequestDurationHist.WithLabelValues("calendar", "delete_event").Observe(time.Since(start).Seconds())
	if err != nil {
		o.logger.WarnContext(ctx, "Calendar event deletion failed", "error", err, "event_ref", eventRef)
		sideEffectFailuresCounter.WithLabelValues("calendar").Inc()
		outcome.Detail = append(outcome.Detail, fmt.Sprintf("calendar: %v", err))
		return domain.SideEffectFailed
	}
	return domain.SideEffectOK
}

// sendAppointmentMessage renders the template for msgType and hands the
// notification to the dispatcher, then records the send on the appointment.
func (o *Orchestrator) sendAppointmentMessage(ctx context.Context, appt *domain.Appointment, patient *domain.Patient, msgType domain.NotificationType, outcome *domain.Outcome) domain.SideEffectResult {
	if patient == nil || patient.Phone == "" {
		o.logger.DebugContext(ctx, "Patient has no phone number, skipping message", "appointment_id", appt.ID)
		return domain.SideEffectSkipped
	}

	message := o.templates.Render(msgType, map[string]string{
		"patient": patient.Name,
		"data":    appt.Date,
		"ora":     appt.Time,
	})
	notification := &domain.Notification{
		PatientID:     patient.ID,
		AppointmentID: &appt.ID,
		Message:       message,
		Type:          msgType,
	}

	sent, err := o.dispatcher.Dispatch(ctx, notification, patient)
	switch {
	case err == nil:
		if msgType != domain.NotificationTypeCancel {
			appt.MessageSent = true
			appt.MessageSentAt = sent.SentAt
			appt.UpdatedAt = o.now().UTC()
			if perr := o.store.SaveAppointment(ctx, appt); perr != nil {
				o.logger.ErrorContext(ctx, "Failed to persist message sent state", "error", perr, "appointment_id", appt.ID)
			} else {
				o.mirror(ctx, appt, outcome)
			}
		}
		return domain.SideEffectOK
	case errors.Is(err, domain.ErrMessagingUnavailable):
		outcome.Detail = append(outcome.Detail, "messaging: service unavailable")
		return domain.SideEffectUnavailable
	default:
		o.logger.ErrorContext(ctx, "Notification dispatch failed", "error", err, "appointment_id", appt.ID, "type", msgType)
		outcome.Detail = append(outcome.Detail, fmt.Sprintf("messaging: %v", err))
		return domain.SideEffectFailed
	}
}

// sideEffectContext detaches a side effect from request cancellation while
// still bounding it: a committed store write must not be rolled back because
// the caller hung up, but a hanging adapter must not pin the worker.
func (o *Orchestrator) sideEffectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.calendarTimeout)
}

func (o *Orchestrator) publish(ctx context.Context, subject string, appt *domain.Appointment, outcome domain.Outcome) {
	if o.events == nil {
		return
	}
	payload, err := json.Marshal(struct {
		AppointmentID string               `json:"appointment_id"`
		PatientID     string               `json:"patient_id"`
		Outcome       domain.OutcomeStatus `json:"outcome"`
		At            time.Time            `json:"at"`
	}{appt.ID, appt.PatientID, outcome.Status, o.now().UTC()})
	if err != nil {
		return
	}
	if err := o.events.Publish(subject, payload); err != nil {
		o.logger.WarnContext(ctx, "Event publish failed", "error", err, "subject", subject)
		sideEffectFailuresCounter.WithLabelValues("events").Inc()
	}
}
