// Package googlecal implements the calendar adapter port against the Google
// Calendar REST API, one event per appointment.
package googlecal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/medagenda/syncengine/internal/core/domain"
)

type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	calendarID string
	token      string
}

func NewClient(logger *slog.Logger, baseURL, calendarID, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		logger:     logger.With("adapter", "googlecal"),
		httpClient: httpClient,
		baseURL:    baseURL,
		calendarID: calendarID,
		token:      token,
	}
}

// IsAuthenticated reports whether a token is configured. Token validity is
// only learned from the API calls themselves.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	return c.token != ""
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type eventRequest struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateEvent creates a calendar event for the appointment and returns the
// provider's event id.
func (c *Client) CreateEvent(ctx context.Context, appt *domain.Appointment) (string, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", appt.Date+" "+appt.Time, time.Local)
	if err != nil {
		return "", fmt.Errorf("parse appointment start: %w", err)
	}
	duration := time.Duration(appt.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = 30 * time.Minute
	}

	summary := "Appuntamento"
	if appt.Type != "" {
		summary = fmt.Sprintf("Appuntamento: %s", appt.Type)
	}
	body := eventRequest{
		Summary:     summary,
		Description: appt.Notes,
		Start:       eventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         eventDateTime{DateTime: start.Add(duration).Format(time.RFC3339)},
	}

	reqBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal event request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.calendarID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return "", fmt.Errorf("create event request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calendar event create: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read calendar response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if jsonErr := json.Unmarshal(respBody, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("calendar event create: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("calendar event create: status %d", resp.StatusCode)
	}

	var event eventResponse
	if err := json.Unmarshal(respBody, &event); err != nil {
		return "", fmt.Errorf("decode calendar response: %w", err)
	}
	if event.ID == "" {
		return "", fmt.Errorf("calendar returned no event id")
	}

	c.logger.DebugContext(ctx, "Calendar event created", "event_ref", event.ID, "appointment_id", appt.ID)
	return event.ID, nil
}

// DeleteEvent removes a remote event. A 404/410 is treated as success so
// deletes stay idempotent.
func (c *Client) DeleteEvent(ctx context.Context, eventRef string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.baseURL, url.PathEscape(c.calendarID), url.PathEscape(eventRef))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calendar event delete: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		c.logger.DebugContext(ctx, "Calendar event already gone", "event_ref", eventRef)
		return nil
	default:
		return fmt.Errorf("calendar event delete: status %d", resp.StatusCode)
	}
}
