package sqlitecache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/syncengine/internal/core/domain"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := New(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func mirroredAppointment(id string) *domain.Appointment {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Appointment{
		ID:              id,
		PatientID:       "pat-1",
		Date:            "2025-03-10",
		Time:            "09:00",
		DurationMinutes: 30,
		Type:            "visita di controllo",
		Notes:           "portare referti",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestUpsertAndList(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	first := mirroredAppointment("appt-1")
	second := mirroredAppointment("appt-2")
	second.Time = "10:30"
	ref := "evt-1"
	second.CalendarSynced = true
	second.CalendarEventRef = &ref

	require.NoError(t, cache.Upsert(ctx, first))
	require.NoError(t, cache.Upsert(ctx, second))

	appts, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "appt-1", appts[0].ID, "ordered by date then time")
	assert.Equal(t, "appt-2", appts[1].ID)
	assert.True(t, appts[1].CalendarSynced)
	require.NotNil(t, appts[1].CalendarEventRef)
	assert.Equal(t, "evt-1", *appts[1].CalendarEventRef)
	assert.Equal(t, "portare referti", appts[0].Notes)
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	appt := mirroredAppointment("appt-1")
	require.NoError(t, cache.Upsert(ctx, appt))

	appt.Time = "15:00"
	appt.MessageSent = true
	sentAt := time.Now().UTC().Truncate(time.Second)
	appt.MessageSentAt = &sentAt
	require.NoError(t, cache.Upsert(ctx, appt))

	appts, err := cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "15:00", appts[0].Time)
	assert.True(t, appts[0].MessageSent)
	require.NotNil(t, appts[0].MessageSentAt)
}

func TestRemove(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Upsert(ctx, mirroredAppointment("appt-1")))
	require.NoError(t, cache.Remove(ctx, "appt-1"))

	appts, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, appts)
}

func TestRemoveUnknownIDIsIdempotent(t *testing.T) {
	cache := newTestCache(t)

	assert.NoError(t, cache.Remove(context.Background(), "never-existed"))
}

func TestUpsertAfterCloseReportsCacheWrite(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Close())

	err := cache.Upsert(context.Background(), mirroredAppointment("appt-1"))
	require.ErrorIs(t, err, domain.ErrCacheWrite)
}
