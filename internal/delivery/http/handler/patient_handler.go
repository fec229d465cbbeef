package handler

import (
	"encoding/json"
	"net/http"

	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/delivery/http/middleware"
	"clinic-appointment-service/internal/usecase"
	"clinic-appointment-service/pkg/response"
	"clinic-appointment-service/pkg/validator"
)

type PatientHandler struct {
	patientUsecase usecase.PatientProfileUsecase
	validator      *validator.CustomValidator
}

func NewPatientHandler(patientUsecase usecase.PatientProfileUsecase, validator *validator.CustomValidator) *PatientHandler {
	return &PatientHandler{
		patientUsecase: patientUsecase,
		validator:      validator,
	}
}

func (h *PatientHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	patient, err := h.patientUsecase.GetPatient(r.Context(), userID)
	if err != nil {
		switch err {
		case usecase.ErrPatientNotFound:
			response.NotFound(w, "Patient profile not found")
		default:
			response.InternalServerError(w, "Failed to get patient profile")
		}
		return
	}

	response.Success(w, http.StatusOK, "Patient profile retrieved successfully", patient)
}

func (h *PatientHandler) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	var req dto.UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	patient, err := h.patientUsecase.UpdatePatient(r.Context(), userID, &req)
	if err != nil {
		switch err {
		case usecase.ErrPatientNotFound:
			response.NotFound(w, "Patient profile not found")
		default:
			response.InternalServerError(w, "Failed to update patient profile")
		}
		return
	}

	response.Success(w, http.StatusOK, "Patient profile updated successfully", patient)
}
