package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/medagenda/syncengine/internal/core/app"
	"github.com/medagenda/syncengine/internal/core/domain"
	"github.com/medagenda/syncengine/internal/core/ports"
)

type AppointmentHandler struct {
	orchestrator *app.Orchestrator
	store        ports.RecordStore
	validate     *validator.Validate
	logger       *slog.Logger
}

func NewAppointmentHandler(orchestrator *app.Orchestrator, store ports.RecordStore, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		orchestrator: orchestrator,
		store:        store,
		validate:     validator.New(),
		logger:       logger.With("handler", "appointment"),
	}
}

func (h *AppointmentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/appointments", h.handleCreate)
	r.Put("/appointments/{appointmentID}", h.handleUpdate)
	r.Delete("/appointments/{appointmentID}", h.handleDelete)
}

func (h *AppointmentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	patient, err := h.store.GetPatient(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "patient not found", req.PatientID)
			return
		}
		logger.ErrorContext(ctx, "Patient lookup failed", "error", err, "patient_id", req.PatientID)
		writeError(w, http.StatusBadGateway, "record store unavailable", "")
		return
	}

	appt := &domain.Appointment{
		PatientID:       req.PatientID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		Notes:           req.Notes,
	}

	created, outcome, err := h.orchestrator.CreateAppointment(ctx, appt, patient)
	if err != nil {
		logger.ErrorContext(ctx, "Appointment creation failed", "error", err)
		writeError(w, http.StatusBadGateway, "appointment could not be persisted", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(created, outcome))
}

func (h *AppointmentHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))
	appointmentID := chi.URLParam(r, "appointmentID")

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	existing, err := h.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found", appointmentID)
			return
		}
		logger.ErrorContext(ctx, "Appointment lookup failed", "error", err, "appointment_id", appointmentID)
		writeError(w, http.StatusBadGateway, "record store unavailable", "")
		return
	}

	patient, err := h.store.GetPatient(ctx, existing.PatientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "patient not found", existing.PatientID)
			return
		}
		logger.ErrorContext(ctx, "Patient lookup failed", "error", err, "patient_id", existing.PatientID)
		writeError(w, http.StatusBadGateway, "record store unavailable", "")
		return
	}

	appt := &domain.Appointment{
		ID:              appointmentID,
		PatientID:       existing.PatientID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		Notes:           req.Notes,
	}

	updated, outcome, err := h.orchestrator.UpdateAppointment(ctx, appt, patient, req.NotifyPatient)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found", appointmentID)
			return
		}
		logger.ErrorContext(ctx, "Appointment update failed", "error", err, "appointment_id", appointmentID)
		writeError(w, http.StatusBadGateway, "appointment could not be persisted", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(updated, outcome))
}

func (h *AppointmentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))
	appointmentID := chi.URLParam(r, "appointmentID")
	notify := r.URL.Query().Get("notify") == "true"

	existing, err := h.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found", appointmentID)
			return
		}
		logger.ErrorContext(ctx, "Appointment lookup failed", "error", err, "appointment_id", appointmentID)
		writeError(w, http.StatusBadGateway, "record store unavailable", "")
		return
	}

	var patient *domain.Patient
	if notify {
		patient, err = h.store.GetPatient(ctx, existing.PatientID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.ErrorContext(ctx, "Patient lookup failed", "error", err, "patient_id", existing.PatientID)
			writeError(w, http.StatusBadGateway, "record store unavailable", "")
			return
		}
	}

	outcome, err := h.orchestrator.DeleteAppointment(ctx, appointmentID, patient, notify && patient != nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found", appointmentID)
			return
		}
		logger.ErrorContext(ctx, "Appointment deletion failed", "error", err, "appointment_id", appointmentID)
		writeError(w, http.StatusBadGateway, "appointment could not be deleted", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, DeleteAppointmentResponse{Deleted: true, Outcome: outcome})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, GenericErrorResponse{Error: message, Details: details})
}
