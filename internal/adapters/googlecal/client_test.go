package googlecal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medagenda/syncengine/internal/core/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(logger, server.URL, "primary", "test-token", server.Client())
}

func testAppointment() *domain.Appointment {
	return &domain.Appointment{
		ID:              "appt-1",
		Date:            "2025-03-10",
		Time:            "09:00",
		DurationMinutes: 45,
		Type:            "visita di controllo",
		Notes:           "portare referti",
	}
}

func TestCreateEvent(t *testing.T) {
	var captured eventRequest
	var capturedAuth string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/calendars/primary/events", r.URL.Path)
		capturedAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(eventResponse{ID: "evt-abc"})
	})

	ref, err := client.CreateEvent(context.Background(), testAppointment())

	require.NoError(t, err)
	assert.Equal(t, "evt-abc", ref)
	assert.Equal(t, "Bearer test-token", capturedAuth)
	assert.Equal(t, "Appuntamento: visita di controllo", captured.Summary)
	assert.Equal(t, "portare referti", captured.Description)
	assert.Contains(t, captured.Start.DateTime, "2025-03-10T09:00:00")
	assert.Contains(t, captured.End.DateTime, "2025-03-10T09:45:00")
}

func TestCreateEventDefaultsDurationToThirtyMinutes(t *testing.T) {
	var captured eventRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(eventResponse{ID: "evt-abc"})
	})

	appt := testAppointment()
	appt.DurationMinutes = 0
	_, err := client.CreateEvent(context.Background(), appt)

	require.NoError(t, err)
	assert.Contains(t, captured.End.DateTime, "2025-03-10T09:30:00")
}

func TestCreateEventSurfacesAPIError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"insufficient permissions"}}`))
	})

	_, err := client.CreateEvent(context.Background(), testAppointment())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "insufficient permissions")
}

func TestCreateEventRejectsMalformedStart(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an unparsable start")
	})

	appt := testAppointment()
	appt.Time = "9 del mattino"
	_, err := client.CreateEvent(context.Background(), appt)

	require.Error(t, err)
}

func TestCreateEventRejectsEmptyEventID(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.CreateEvent(context.Background(), testAppointment())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no event id")
}

func TestDeleteEvent(t *testing.T) {
	var capturedPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		capturedPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.DeleteEvent(context.Background(), "evt-abc")

	require.NoError(t, err)
	assert.Equal(t, "/calendars/primary/events/evt-abc", capturedPath)
}

func TestDeleteEventTreatsGoneEventAsSuccess(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		assert.NoError(t, client.DeleteEvent(context.Background(), "evt-abc"))
	}
}

func TestDeleteEventSurfacesServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.DeleteEvent(context.Background(), "evt-abc")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestIsAuthenticated(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.True(t, NewClient(logger, "http://x", "primary", "tok", nil).IsAuthenticated(context.Background()))
	assert.False(t, NewClient(logger, "http://x", "primary", "", nil).IsAuthenticated(context.Background()))
}
