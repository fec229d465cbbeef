package converter

import (
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"

	"github.com/google/uuid"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:         appointment.ID,
		PatientID:  appointment.PatientID,
		DoctorID:   appointment.DoctorID,
		Date:       appointment.Date.Format("2006-01-02"),
		StartTime:  appointment.StartTime,
		Status:     string(appointment.Status),
		IsArchived: appointment.IsArchived,
		Reason:     appointment.Reason,
		Notes:      appointment.Notes,
		CreatedAt:  appointment.CreatedAt,
		UpdatedAt:  appointment.UpdatedAt,
	}

	if appointment.Doctor.UserID != uuid.Nil {
		response.Doctor = DoctorToResponse(&appointment.Doctor)
	}
	if appointment.Patient.UserID != uuid.Nil {
		response.Patient = PatientToResponse(&appointment.Patient)
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to response DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i, appointment := range appointments {
		resp := AppointmentToResponse(&appointment)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
