package dto

import "github.com/google/uuid"

// Request DTOs

type UpdateDoctorRequest struct {
	FullName       *string `json:"full_name" validate:"omitempty,min=2"`
	Specialization *string `json:"specialization" validate:"omitempty,max=100"`
	Biography      *string `json:"biography" validate:"omitempty"`
}

// Response DTOs

type DoctorResponse struct {
	ID             uuid.UUID                    `json:"id"`
	Email          string                       `json:"email,omitempty"`
	FullName       string                       `json:"full_name"`
	LicenseNumber  string                       `json:"license_number"`
	Specialization string                       `json:"specialization"`
	Biography      string                       `json:"biography,omitempty"`
	IsActive       bool                         `json:"is_active"`
	Availability   []AvailabilityWindowResponse `json:"availability,omitempty"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
