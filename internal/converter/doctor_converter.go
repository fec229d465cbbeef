package converter

import (
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
)

// DoctorToResponse converts a DoctorProfile entity to DoctorResponse DTO
func DoctorToResponse(profile *entity.DoctorProfile) *dto.DoctorResponse {
	if profile == nil {
		return nil
	}

	response := &dto.DoctorResponse{
		ID:             profile.UserID,
		Email:          profile.User.Email,
		FullName:       profile.User.FullName,
		LicenseNumber:  profile.LicenseNumber,
		Specialization: profile.Specialization,
		Biography:      profile.Biography,
		IsActive:       profile.User.IsActive,
	}

	if len(profile.Availability) > 0 {
		response.Availability = AvailabilityWindowsToResponses(profile.Availability)
	}

	return response
}

// DoctorsToResponses converts a slice of DoctorProfile entities to response DTOs
func DoctorsToResponses(profiles []entity.DoctorProfile) []dto.DoctorResponse {
	responses := make([]dto.DoctorResponse, len(profiles))
	for i, profile := range profiles {
		resp := DoctorToResponse(&profile)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
