package dto

import "github.com/google/uuid"

// Request DTOs

type UpdatePatientRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=2"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,min=10,max=20"`
	Address     *string `json:"address" validate:"omitempty"`
}

// Response DTOs

type PatientResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email,omitempty"`
	FullName    string    `json:"full_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Gender      string    `json:"gender,omitempty"`
	Address     string    `json:"address,omitempty"`
}

type PatientListResponse struct {
	Patients []PatientResponse `json:"patients"`
	Total    int               `json:"total"`
}
