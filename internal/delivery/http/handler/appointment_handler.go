package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/delivery/http/middleware"
	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/internal/service"
	"clinic-appointment-service/internal/usecase"
	"clinic-appointment-service/pkg/response"
	"clinic-appointment-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
	}
}

// actorFromContext rebuilds the caller identity from the auth middleware.
func actorFromContext(r *http.Request) (entity.Actor, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return entity.Actor{}, false
	}
	roleID, ok := middleware.GetRoleIDFromContext(r.Context())
	if !ok {
		return entity.Actor{}, false
	}
	switch roleID {
	case entity.RoleIDDoctor:
		return entity.DoctorActor(userID), true
	case entity.RoleIDPatient:
		return entity.PatientActor(userID), true
	}
	return entity.Actor{}, false
}

// writeSchedulingError maps booking-gate failures to HTTP status codes.
// Returns false when err was not produced by the gate.
func writeSchedulingError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, service.ErrDoctorNotFound):
		response.NotFound(w, "Doctor not found")
	case errors.Is(err, service.ErrMalformedTime):
		response.BadRequest(w, "Start time must use the HH:MM format")
	case errors.Is(err, service.ErrOutsideClinicHours):
		response.UnprocessableEntity(w, "Requested time is outside clinic hours (08:00-17:00)")
	case errors.Is(err, service.ErrInvalidGranularity):
		response.UnprocessableEntity(w, "Appointments start on 30-minute boundaries")
	case errors.Is(err, service.ErrPastDate):
		response.UnprocessableEntity(w, "Cannot book an appointment in the past")
	case errors.Is(err, service.ErrNoAvailability):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, service.ErrSlotTaken):
		response.Conflict(w, "Slot is already booked")
	case errors.Is(err, service.ErrInsufficientBuffer):
		response.Conflict(w, "Slot is too close to an existing appointment")
	default:
		return false
	}
	return true
}

func (h *AppointmentHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	err := h.appointmentUsecase.CheckAvailability(r.Context(), &req)
	if err != nil {
		if writeSchedulingError(w, err) {
			return
		}
		switch err {
		case usecase.ErrInvalidDate:
			response.BadRequest(w, "Date must use the YYYY-MM-DD format")
		default:
			response.InternalServerError(w, "Failed to check availability")
		}
		return
	}

	response.Success(w, http.StatusOK, "Slot is available", nil)
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	var req dto.CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.CreateAppointment(r.Context(), userID, &req)
	if err != nil {
		if writeSchedulingError(w, err) {
			return
		}
		switch err {
		case usecase.ErrPatientNotFound:
			response.NotFound(w, "Patient profile not found")
		case usecase.ErrInvalidDate:
			response.BadRequest(w, "Date must use the YYYY-MM-DD format")
		default:
			response.InternalServerError(w, "Failed to create appointment")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

func (h *AppointmentHandler) GetAppointments(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	query := r.URL.Query()
	req := dto.ListAppointmentsRequest{
		StartAt:         query.Get("start_at"),
		EndAt:           query.Get("end_at"),
		Status:          query.Get("status"),
		IncludeArchived: query.Get("include_archived") == "true",
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointments, err := h.appointmentUsecase.GetAppointments(r.Context(), actor, &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidDate:
			response.BadRequest(w, "Date filters must use the YYYY-MM-DD format")
		default:
			response.InternalServerError(w, "Failed to get appointments")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointments retrieved successfully", appointments)
}

func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	appointmentID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	appointment, err := h.appointmentUsecase.GetAppointment(r.Context(), actor, appointmentID)
	if err != nil {
		switch err {
		case usecase.ErrAppointmentNotFound:
			response.NotFound(w, "Appointment not found")
		case usecase.ErrAppointmentNotOwned:
			response.Forbidden(w, "Appointment does not belong to you")
		default:
			response.InternalServerError(w, "Failed to get appointment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

func (h *AppointmentHandler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	appointmentID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	var req dto.UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.UpdateAppointment(r.Context(), actor, appointmentID, &req)
	if err != nil {
		if writeSchedulingError(w, err) {
			return
		}
		switch err {
		case usecase.ErrAppointmentNotFound:
			response.NotFound(w, "Appointment not found")
		case usecase.ErrAppointmentNotOwned:
			response.Forbidden(w, "Appointment does not belong to you")
		case usecase.ErrAppointmentLocked:
			response.Conflict(w, "Appointment can no longer be rescheduled")
		case usecase.ErrInvalidDate:
			response.BadRequest(w, "Date must use the YYYY-MM-DD format")
		default:
			response.InternalServerError(w, "Failed to update appointment")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointment updated successfully", appointment)
}

func (h *AppointmentHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	appointmentID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid appointment ID", nil)
		return
	}

	var req dto.ChangeAppointmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	appointment, err := h.appointmentUsecase.ChangeStatus(r.Context(), actor, appointmentID, &req)
	if err != nil {
		var transitionErr *entity.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			response.Conflict(w, transitionErr.Error())
			return
		}
		switch err {
		case usecase.ErrAppointmentNotFound:
			response.NotFound(w, "Appointment not found")
		case usecase.ErrAppointmentNotOwned:
			response.Forbidden(w, "Appointment does not belong to you")
		case usecase.ErrInvalidStatus:
			response.BadRequest(w, "Unknown appointment status")
		default:
			response.InternalServerError(w, "Failed to change appointment status")
		}
		return
	}

	response.Success(w, http.StatusOK, "Appointment status updated successfully", appointment)
}
