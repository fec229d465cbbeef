package repository

import (
	"time"

	"clinic-appointment-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentRepository is the persistence contract for appointments.
//
// The slot lookup methods (FindAtSlot, FindNearestBefore, FindNearestAfter)
// always exclude cancelled appointments, and exclude the appointment
// identified by excludeID when it is non-nil so an edit never collides
// with itself. The (doctor_id, date, start_time) uniqueness among
// non-cancelled rows is guaranteed by a partial unique index; Create
// surfaces the raw driver error so callers can detect the violation.
type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	Update(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error)
	FindAtSlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error)
	FindNearestBefore(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error)
	FindNearestAfter(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error)
	FindConfirmedPast(db *gorm.DB, cutoff time.Time) ([]entity.Appointment, error)
}
