package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/medagenda/syncengine/internal/core/domain"
)

// --- Mocks ---

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) SaveAppointment(ctx context.Context, appt *domain.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockRecordStore) GetAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *MockRecordStore) DeleteAppointment(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecordStore) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Patient), args.Error(1)
}

func (m *MockRecordStore) SaveNotification(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockRecordStore) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockRecordStore) UpdateNotificationStatus(ctx context.Context, id string, status domain.NotificationStatus, sentAt *time.Time) error {
	args := m.Called(ctx, id, status, sentAt)
	return args.Error(0)
}

type MockFallbackCache struct {
	mock.Mock
}

func (m *MockFallbackCache) Upsert(ctx context.Context, appt *domain.Appointment) error {
	args := m.Called(ctx, appt)
	return args.Error(0)
}

func (m *MockFallbackCache) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCalendarAdapter struct {
	mock.Mock
}

func (m *MockCalendarAdapter) IsAuthenticated(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockCalendarAdapter) CreateEvent(ctx context.Context, appt *domain.Appointment) (string, error) {
	args := m.Called(ctx, appt)
	return args.String(0), args.Error(1)
}

func (m *MockCalendarAdapter) DeleteEvent(ctx context.Context, eventRef string) error {
	args := m.Called(ctx, eventRef)
	return args.Error(0)
}

type MockMessagingAdapter struct {
	mock.Mock
}

func (m *MockMessagingAdapter) IsEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockMessagingAdapter) IsAuthenticated() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockMessagingAdapter) Authenticate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMessagingAdapter) Send(ctx context.Context, phone, message string, msgType domain.NotificationType) error {
	args := m.Called(ctx, phone, message, msgType)
	return args.Error(0)
}

type MockEntitlementSource struct {
	mock.Mock
}

func (m *MockEntitlementSource) CurrentLicense(ctx context.Context) (*domain.License, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.License), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(subject string, data []byte) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
