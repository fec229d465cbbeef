package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no-show"
)

// IsValid reports whether s is one of the known statuses.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted,
		AppointmentStatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether s permits no further date/time/reason edits.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCancelled, AppointmentStatusCompleted, AppointmentStatusNoShow:
		return true
	}
	return false
}

// InvalidTransitionError is returned when a status change is not allowed
// by the appointment lifecycle. It carries both statuses for diagnostics.
type InvalidTransitionError struct {
	From AppointmentStatus
	To   AppointmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// Appointment represents a time-boxed visit between a patient and a doctor.
// Date carries only the calendar day; StartTime is "HH:MM" on the 30-minute
// grid. Appointments are never deleted, terminal ones get archived.
type Appointment struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID   uuid.UUID         `gorm:"type:uuid;not null;index:idx_appointments_doctor_date" json:"doctor_id"`
	Date       time.Time         `gorm:"type:date;not null;index:idx_appointments_doctor_date" json:"date"`
	StartTime  string            `gorm:"column:start_time;type:varchar(5);not null" json:"start_time"`
	Status     AppointmentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsArchived bool              `gorm:"not null;default:false;index" json:"is_archived"`
	Reason     string            `gorm:"type:varchar(500);not null" json:"reason"`
	Notes      string            `gorm:"type:varchar(1000)" json:"notes,omitempty"`
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient PatientProfile `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  DoctorProfile  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsPending checks if the appointment is awaiting confirmation
func (a *Appointment) IsPending() bool {
	return a.Status == AppointmentStatusPending
}

// IsConfirmed checks if the appointment is confirmed
func (a *Appointment) IsConfirmed() bool {
	return a.Status == AppointmentStatusConfirmed
}

// IsCancelled checks if the appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// StartsAt combines Date and StartTime into a wall-clock instant in loc.
func (a *Appointment) StartsAt(loc *time.Location) time.Time {
	t, err := time.Parse("15:04", a.StartTime)
	if err != nil {
		// Start time is validated on write; an unparsable value means the
		// record predates validation, treat it as midnight.
		t = time.Time{}
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// HasPassed reports whether the appointment's date+time is before now.
func (a *Appointment) HasPassed(now time.Time) bool {
	return a.StartsAt(now.Location()).Before(now)
}

// Transition applies a lifecycle status change requested by actor at time now.
//
// Rules:
//   - pending -> confirmed or cancelled: always allowed.
//   - confirmed -> cancelled: doctors always; patients only while the
//     appointment has not yet started.
//   - confirmed -> completed or no-show: only once the appointment has passed.
//   - reaching a terminal state from confirmed after the start time has passed
//     also archives the record.
//
// Everything else fails with *InvalidTransitionError.
func (a *Appointment) Transition(to AppointmentStatus, actor Actor, now time.Time) error {
	switch {
	case a.Status == AppointmentStatusPending && to == AppointmentStatusConfirmed:
		// ok
	case a.Status == AppointmentStatusPending && to == AppointmentStatusCancelled:
		// ok
	case a.Status == AppointmentStatusConfirmed && to == AppointmentStatusCancelled:
		if !actor.IsDoctor() && a.HasPassed(now) {
			return &InvalidTransitionError{From: a.Status, To: to}
		}
	case a.Status == AppointmentStatusConfirmed &&
		(to == AppointmentStatusCompleted || to == AppointmentStatusNoShow):
		if !a.HasPassed(now) {
			return &InvalidTransitionError{From: a.Status, To: to}
		}
	default:
		return &InvalidTransitionError{From: a.Status, To: to}
	}

	if a.Status == AppointmentStatusConfirmed && to.IsTerminal() && a.HasPassed(now) {
		a.IsArchived = true
	}
	a.Status = to
	return nil
}
