package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAppointmentRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	Date      string    `json:"date" validate:"required,dateonly"`
	StartTime string    `json:"start_time" validate:"required,hhmm"`
	Reason    string    `json:"reason" validate:"required,min=10,max=500"`
	Notes     string    `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateAppointmentRequest struct {
	Date      *string `json:"date" validate:"omitempty,dateonly"`
	StartTime *string `json:"start_time" validate:"omitempty,hhmm"`
	Reason    *string `json:"reason" validate:"omitempty,min=10,max=500"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

type ChangeAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled completed no-show"`
}

type CheckAvailabilityRequest struct {
	DoctorID             uuid.UUID  `json:"doctor_id" validate:"required"`
	Date                 string     `json:"date" validate:"required,dateonly"`
	StartTime            string     `json:"start_time" validate:"required,hhmm"`
	ExcludeAppointmentID *uuid.UUID `json:"exclude_appointment_id,omitempty"`
}

type ListAppointmentsRequest struct {
	StartAt         string `json:"start_at" validate:"omitempty,dateonly"`
	EndAt           string `json:"end_at" validate:"omitempty,dateonly"`
	Status          string `json:"status" validate:"omitempty,oneof=pending confirmed cancelled completed no-show"`
	IncludeArchived bool   `json:"include_archived"`
}

// Response DTOs

type AppointmentResponse struct {
	ID         uuid.UUID        `json:"id"`
	PatientID  uuid.UUID        `json:"patient_id"`
	DoctorID   uuid.UUID        `json:"doctor_id"`
	Date       string           `json:"date"`
	StartTime  string           `json:"start_time"`
	Status     string           `json:"status"`
	IsArchived bool             `json:"is_archived"`
	Reason     string           `json:"reason"`
	Notes      string           `json:"notes,omitempty"`
	Doctor     *DoctorResponse  `json:"doctor,omitempty"`
	Patient    *PatientResponse `json:"patient,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
