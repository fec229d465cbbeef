package converter

import (
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role.RoleName,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if user.DoctorProfile != nil {
		profile := *user.DoctorProfile
		profile.User = *user
		response.DoctorProfile = DoctorToResponse(&profile)
	}
	if user.PatientProfile != nil {
		profile := *user.PatientProfile
		profile.User = *user
		response.PatientProfile = PatientToResponse(&profile)
	}

	return response
}
