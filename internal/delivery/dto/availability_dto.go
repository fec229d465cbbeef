package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAvailabilityWindowRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"` // 0 = Sunday
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

type UpdateAvailabilityWindowRequest struct {
	StartTime *string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime   *string `json:"end_time" validate:"omitempty,hhmm"`
}

// Response DTOs

type AvailabilityWindowResponse struct {
	ID        int       `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AvailabilityWindowListResponse struct {
	Windows []AvailabilityWindowResponse `json:"windows"`
	Total   int                          `json:"total"`
}
