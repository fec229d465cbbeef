package converter

import (
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
)

// PatientToResponse converts a PatientProfile entity to PatientResponse DTO
func PatientToResponse(profile *entity.PatientProfile) *dto.PatientResponse {
	if profile == nil {
		return nil
	}

	return &dto.PatientResponse{
		ID:          profile.UserID,
		Email:       profile.User.Email,
		FullName:    profile.User.FullName,
		PhoneNumber: profile.PhoneNumber,
		DateOfBirth: profile.DateOfBirth.Format("2006-01-02"),
		Gender:      profile.Gender,
		Address:     profile.Address,
	}
}

// PatientsToResponses converts a slice of PatientProfile entities to response DTOs
func PatientsToResponses(profiles []entity.PatientProfile) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, len(profiles))
	for i, profile := range profiles {
		resp := PatientToResponse(&profile)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
