package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/delivery/http/middleware"
	"clinic-appointment-service/internal/service"
	"clinic-appointment-service/internal/usecase"
	"clinic-appointment-service/pkg/response"
	"clinic-appointment-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, validator *validator.CustomValidator) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
	}
}

func writeWindowError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case usecase.ErrWindowNotFound:
		response.NotFound(w, "Availability window not found")
	case usecase.ErrWindowNotOwned:
		response.Forbidden(w, "Availability window does not belong to you")
	case usecase.ErrDuplicateDayWindow:
		response.Conflict(w, "An availability window already exists for this weekday")
	case usecase.ErrInvalidWindowRange:
		response.UnprocessableEntity(w, "Window start time must be before end time")
	case service.ErrDoctorNotFound:
		response.NotFound(w, "Doctor not found")
	case service.ErrMalformedTime:
		response.BadRequest(w, "Window times must use the HH:MM format")
	case service.ErrOutsideClinicHours:
		response.UnprocessableEntity(w, "Window times must be within clinic hours (08:00-17:00)")
	case service.ErrInvalidGranularity:
		response.UnprocessableEntity(w, "Window times must be on 30-minute boundaries")
	default:
		response.InternalServerError(w, fallback)
	}
}

func (h *AvailabilityHandler) CreateWindow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	var req dto.CreateAvailabilityWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	window, err := h.availabilityUsecase.CreateWindow(r.Context(), userID, &req)
	if err != nil {
		writeWindowError(w, err, "Failed to create availability window")
		return
	}

	response.Success(w, http.StatusCreated, "Availability window created successfully", window)
}

func (h *AvailabilityHandler) GetMyWindows(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	windows, err := h.availabilityUsecase.GetWindows(r.Context(), userID)
	if err != nil {
		writeWindowError(w, err, "Failed to get availability windows")
		return
	}

	response.Success(w, http.StatusOK, "Availability windows retrieved successfully", windows)
}

// GetDoctorWindows is the public view of a doctor's weekly availability.
func (h *AvailabilityHandler) GetDoctorWindows(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	doctorID, err := uuid.Parse(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	windows, err := h.availabilityUsecase.GetWindows(r.Context(), doctorID)
	if err != nil {
		writeWindowError(w, err, "Failed to get availability windows")
		return
	}

	response.Success(w, http.StatusOK, "Availability windows retrieved successfully", windows)
}

func (h *AvailabilityHandler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	windowID, err := strconv.Atoi(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid window ID", nil)
		return
	}

	var req dto.UpdateAvailabilityWindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	window, err := h.availabilityUsecase.UpdateWindow(r.Context(), userID, windowID, &req)
	if err != nil {
		writeWindowError(w, err, "Failed to update availability window")
		return
	}

	response.Success(w, http.StatusOK, "Availability window updated successfully", window)
}

func (h *AvailabilityHandler) DeleteWindow(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	windowID, err := strconv.Atoi(vars["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid window ID", nil)
		return
	}

	if err := h.availabilityUsecase.DeleteWindow(r.Context(), userID, windowID); err != nil {
		writeWindowError(w, err, "Failed to delete availability window")
		return
	}

	response.Success(w, http.StatusOK, "Availability window deleted successfully", nil)
}
