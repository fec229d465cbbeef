package converter

import (
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
)

// AvailabilityWindowToResponse converts an AvailabilityWindow entity to its DTO
func AvailabilityWindowToResponse(window *entity.AvailabilityWindow) *dto.AvailabilityWindowResponse {
	if window == nil {
		return nil
	}

	return &dto.AvailabilityWindowResponse{
		ID:        window.ID,
		DoctorID:  window.DoctorID,
		DayOfWeek: int(window.DayOfWeek),
		StartTime: window.StartTime,
		EndTime:   window.EndTime,
		CreatedAt: window.CreatedAt,
		UpdatedAt: window.UpdatedAt,
	}
}

// AvailabilityWindowsToResponses converts a slice of windows to response DTOs
func AvailabilityWindowsToResponses(windows []entity.AvailabilityWindow) []dto.AvailabilityWindowResponse {
	responses := make([]dto.AvailabilityWindowResponse, len(windows))
	for i, window := range windows {
		resp := AvailabilityWindowToResponse(&window)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
