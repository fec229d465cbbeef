package repository

import (
	"errors"

	"clinic-appointment-service/internal/domain/entity"
	domainRepo "clinic-appointment-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type patientProfileRepository struct{}

func NewPatientProfileRepository() domainRepo.PatientProfileRepository {
	return &patientProfileRepository{}
}

func (r *patientProfileRepository) Create(db *gorm.DB, profile *entity.PatientProfile) error {
	return db.Create(profile).Error
}

func (r *patientProfileRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	var profile entity.PatientProfile
	err := db.Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *patientProfileRepository) FindAll(db *gorm.DB) ([]entity.PatientProfile, error) {
	var profiles []entity.PatientProfile
	err := db.Preload("User").Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *patientProfileRepository) Update(db *gorm.DB, profile *entity.PatientProfile) error {
	return db.Omit("User").Save(profile).Error
}

func (r *patientProfileRepository) Delete(db *gorm.DB, userID uuid.UUID) error {
	return db.Where("user_id = ?", userID).Delete(&entity.PatientProfile{}).Error
}
