package repository

import (
	"errors"
	"time"

	"clinic-appointment-service/internal/domain/entity"
	domainRepo "clinic-appointment-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) Update(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Omit("Doctor", "Patient").Save(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("Doctor.User").Preload("Patient.User").Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindByPatientID(db *gorm.DB, patientID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := applyFilter(db.Where("patient_id = ?", patientID), filter)
	err := query.Preload("Doctor.User").
		Order("date ASC, start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := applyFilter(db.Where("doctor_id = ?", doctorID), filter)
	err := query.Preload("Patient.User").
		Order("date ASC, start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindAtSlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	query := db.Where("doctor_id = ? AND date = ? AND start_time = ? AND status != ?",
		doctorID, date, startTime, entity.AppointmentStatusCancelled)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// FindNearestBefore returns the latest non-cancelled appointment for the
// doctor on the given date with start_time strictly before startTime.
// Zero-padded HH:MM strings order chronologically, so the comparison and
// ordering are done directly on the column.
func (r *appointmentRepository) FindNearestBefore(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	query := db.Where("doctor_id = ? AND date = ? AND start_time < ? AND status != ?",
		doctorID, date, startTime, entity.AppointmentStatusCancelled)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Order("start_time DESC").First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) FindNearestAfter(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	query := db.Where("doctor_id = ? AND date = ? AND start_time > ? AND status != ?",
		doctorID, date, startTime, entity.AppointmentStatusCancelled)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	err := query.Order("start_time ASC").First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// FindConfirmedPast returns confirmed, not yet archived appointments whose
// date is strictly before cutoff. Used by the archival sweep.
func (r *appointmentRepository) FindConfirmedPast(db *gorm.DB, cutoff time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Where("status = ? AND date < ? AND is_archived = ?",
		entity.AppointmentStatusConfirmed, cutoff, false).
		Order("date ASC, start_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func applyFilter(query *gorm.DB, filter *entity.AppointmentFilter) *gorm.DB {
	if filter == nil {
		return query.Where("is_archived = ?", false)
	}
	if !filter.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if filter.StartAt != "" {
		query = query.Where("date >= ?", filter.StartAt)
	}
	if filter.EndAt != "" {
		query = query.Where("date <= ?", filter.EndAt)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}
