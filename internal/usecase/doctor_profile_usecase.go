package usecase

import (
	"context"

	"clinic-appointment-service/internal/converter"
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/repository"
	"clinic-appointment-service/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DoctorProfileUsecase interface {
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error)
	GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error)
	UpdateDoctor(ctx context.Context, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error)
}

type doctorProfileUsecase struct {
	db                *gorm.DB
	log               *logrus.Logger
	userRepo          repository.UserRepository
	doctorProfileRepo repository.DoctorProfileRepository
}

func NewDoctorProfileUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	doctorProfileRepo repository.DoctorProfileRepository,
) DoctorProfileUsecase {
	return &doctorProfileUsecase{
		db:                db,
		log:               log,
		userRepo:          userRepo,
		doctorProfileRepo: doctorProfileRepo,
	}
}

// GetDoctor returns the doctor's public profile together with the weekly
// availability windows, so patients can pick a bookable slot.
func (u *doctorProfileUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*dto.DoctorResponse, error) {
	profile, err := u.doctorProfileRepo.FindWithAvailability(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if profile == nil {
		return nil, service.ErrDoctorNotFound
	}

	return converter.DoctorToResponse(profile), nil
}

func (u *doctorProfileUsecase) GetAllDoctors(ctx context.Context) (*dto.DoctorListResponse, error) {
	profiles, err := u.doctorProfileRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find all doctors: %+v", err)
		return nil, err
	}

	return &dto.DoctorListResponse{
		Doctors: converter.DoctorsToResponses(profiles),
		Total:   len(profiles),
	}, nil
}

func (u *doctorProfileUsecase) UpdateDoctor(ctx context.Context, doctorID uuid.UUID, req *dto.UpdateDoctorRequest) (*dto.DoctorResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.doctorProfileRepo.FindByUserID(tx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if profile == nil {
		return nil, service.ErrDoctorNotFound
	}

	if req.FullName != nil {
		profile.User.FullName = *req.FullName
		if err := tx.Model(&profile.User).Update("full_name", *req.FullName).Error; err != nil {
			u.log.Warnf("Failed to update doctor name %s: %+v", doctorID, err)
			return nil, err
		}
	}
	if req.Specialization != nil {
		profile.Specialization = *req.Specialization
	}
	if req.Biography != nil {
		profile.Biography = *req.Biography
	}

	if err := u.doctorProfileRepo.Update(tx, profile); err != nil {
		u.log.Warnf("Failed to update doctor %s: %+v", doctorID, err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.DoctorToResponse(profile), nil
}
