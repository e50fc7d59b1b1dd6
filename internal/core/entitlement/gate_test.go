package entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/medagenda/syncengine/internal/core/domain"
)

type mockLicenseSource struct {
	mock.Mock
}

func (m *mockLicenseSource) CurrentLicense(ctx context.Context) (*domain.License, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.License), args.Error(1)
}

func TestResolve(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	valid := now.Add(30 * 24 * time.Hour)

	testCases := []struct {
		name     string
		license  *domain.License
		err      error
		expected domain.Entitlement
	}{
		{
			name:     "full license unlocks both",
			license:  &domain.License{Type: domain.LicenseTypeFull, ExpiresAt: valid},
			expected: domain.Entitlement{CalendarEnabled: true, MessagingEnabled: true},
		},
		{
			name:     "google license unlocks calendar only",
			license:  &domain.License{Type: domain.LicenseTypeGoogle, ExpiresAt: valid},
			expected: domain.Entitlement{CalendarEnabled: true},
		},
		{
			name:     "whatsapp license unlocks messaging only",
			license:  &domain.License{Type: domain.LicenseTypeWhatsApp, ExpiresAt: valid},
			expected: domain.Entitlement{MessagingEnabled: true},
		},
		{
			name:     "basic license unlocks nothing",
			license:  &domain.License{Type: domain.LicenseTypeBasic, ExpiresAt: valid},
			expected: domain.Entitlement{},
		},
		{
			name:     "expired full license unlocks nothing",
			license:  &domain.License{Type: domain.LicenseTypeFull, ExpiresAt: now.Add(-time.Minute)},
			expected: domain.Entitlement{},
		},
		{
			name:     "license expiring exactly now is still valid",
			license:  &domain.License{Type: domain.LicenseTypeGoogle, ExpiresAt: now},
			expected: domain.Entitlement{CalendarEnabled: true},
		},
		{
			name:     "no license installed",
			license:  nil,
			expected: domain.Entitlement{},
		},
		{
			name:     "unreadable license degrades to nothing",
			err:      errors.New("db down"),
			expected: domain.Entitlement{},
		},
		{
			name:     "unknown license type unlocks nothing",
			license:  &domain.License{Type: domain.LicenseType("platinum"), ExpiresAt: valid},
			expected: domain.Entitlement{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			source := new(mockLicenseSource)
			source.On("CurrentLicense", mock.Anything).Return(tc.license, tc.err)
			gate := NewGate(source, slog.New(slog.NewTextHandler(io.Discard, nil)))

			assert.Equal(t, tc.expected, gate.Resolve(context.Background(), now))
		})
	}
}
