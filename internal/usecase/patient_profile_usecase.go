package usecase

import (
	"context"

	"clinic-appointment-service/internal/converter"
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type PatientProfileUsecase interface {
	GetPatient(ctx context.Context, patientID uuid.UUID) (*dto.PatientResponse, error)
	UpdatePatient(ctx context.Context, patientID uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
}

type patientProfileUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	patientProfileRepo repository.PatientProfileRepository
}

func NewPatientProfileUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	patientProfileRepo repository.PatientProfileRepository,
) PatientProfileUsecase {
	return &patientProfileUsecase{
		db:                 db,
		log:                log,
		patientProfileRepo: patientProfileRepo,
	}
}

func (u *patientProfileUsecase) GetPatient(ctx context.Context, patientID uuid.UUID) (*dto.PatientResponse, error) {
	profile, err := u.patientProfileRepo.FindByUserID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrPatientNotFound
	}

	return converter.PatientToResponse(profile), nil
}

func (u *patientProfileUsecase) UpdatePatient(ctx context.Context, patientID uuid.UUID, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.patientProfileRepo.FindByUserID(tx, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrPatientNotFound
	}

	if req.FullName != nil {
		profile.User.FullName = *req.FullName
		if err := tx.Model(&profile.User).Update("full_name", *req.FullName).Error; err != nil {
			u.log.Warnf("Failed to update patient name %s: %+v", patientID, err)
			return nil, err
		}
	}
	if req.PhoneNumber != nil {
		profile.PhoneNumber = *req.PhoneNumber
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}

	if err := u.patientProfileRepo.Update(tx, profile); err != nil {
		u.log.Warnf("Failed to update patient %s: %+v", patientID, err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.PatientToResponse(profile), nil
}
