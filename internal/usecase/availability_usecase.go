package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"clinic-appointment-service/internal/converter"
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/internal/domain/repository"
	"clinic-appointment-service/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrWindowNotFound     = errors.New("availability window not found")
	ErrWindowNotOwned     = errors.New("availability window does not belong to you")
	ErrDuplicateDayWindow = errors.New("doctor already has a window for this weekday")
	ErrInvalidWindowRange = errors.New("window start time must be before end time")
)

type AvailabilityUsecase interface {
	CreateWindow(ctx context.Context, doctorID uuid.UUID, req *dto.CreateAvailabilityWindowRequest) (*dto.AvailabilityWindowResponse, error)
	GetWindows(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityWindowListResponse, error)
	UpdateWindow(ctx context.Context, doctorID uuid.UUID, windowID int, req *dto.UpdateAvailabilityWindowRequest) (*dto.AvailabilityWindowResponse, error)
	DeleteWindow(ctx context.Context, doctorID uuid.UUID, windowID int) error
}

type availabilityUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	windowRepo   repository.AvailabilityWindowRepository
	doctorRepo   repository.DoctorProfileRepository
	auditService service.AuditService
}

func NewAvailabilityUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	windowRepo repository.AvailabilityWindowRepository,
	doctorRepo repository.DoctorProfileRepository,
	auditService service.AuditService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		db:           db,
		log:          log,
		windowRepo:   windowRepo,
		doctorRepo:   doctorRepo,
		auditService: auditService,
	}
}

// validateWindowTimes checks a declared window lies inside clinic hours
// with start strictly before end.
func validateWindowTimes(startTime, endTime string) error {
	start, err := time.Parse("15:04", startTime)
	if err != nil {
		return service.ErrMalformedTime
	}
	end, err := time.Parse("15:04", endTime)
	if err != nil {
		return service.ErrMalformedTime
	}

	startMinutes := start.Hour()*60 + start.Minute()
	endMinutes := end.Hour()*60 + end.Minute()

	if startMinutes < service.ClinicOpenHour*60 || endMinutes > service.ClinicCloseHour*60 {
		return service.ErrOutsideClinicHours
	}
	if startMinutes >= endMinutes {
		return ErrInvalidWindowRange
	}
	return nil
}

func (u *availabilityUsecase) CreateWindow(ctx context.Context, doctorID uuid.UUID, req *dto.CreateAvailabilityWindowRequest) (*dto.AvailabilityWindowResponse, error) {
	doctor, err := u.doctorRepo.FindByUserID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil {
		return nil, service.ErrDoctorNotFound
	}

	if err := validateWindowTimes(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	existing, err := u.windowRepo.FindByDoctorAndDay(u.db.WithContext(ctx), doctorID, time.Weekday(req.DayOfWeek))
	if err != nil {
		u.log.Warnf("Failed to check existing window for doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateDayWindow
	}

	window := &entity.AvailabilityWindow{
		DoctorID:  doctorID,
		DayOfWeek: time.Weekday(req.DayOfWeek),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	if err := u.windowRepo.Create(u.db.WithContext(ctx), window); err != nil {
		if isDuplicateKeyError(err, "uniq_doctor_weekday") {
			return nil, ErrDuplicateDayWindow
		}
		u.log.Warnf("Failed to create availability window: %+v", err)
		return nil, err
	}

	u.auditService.LogChange(u.db.WithContext(ctx), &doctorID, entity.AuditActionAvailabilityCreate,
		"availability_window", strconv.Itoa(window.ID), nil, windowAuditValue(window))

	return converter.AvailabilityWindowToResponse(window), nil
}

func (u *availabilityUsecase) GetWindows(ctx context.Context, doctorID uuid.UUID) (*dto.AvailabilityWindowListResponse, error) {
	windows, err := u.windowRepo.FindByDoctorID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to list availability windows for doctor %s: %+v", doctorID, err)
		return nil, err
	}

	return &dto.AvailabilityWindowListResponse{
		Windows: converter.AvailabilityWindowsToResponses(windows),
		Total:   len(windows),
	}, nil
}

func (u *availabilityUsecase) UpdateWindow(ctx context.Context, doctorID uuid.UUID, windowID int, req *dto.UpdateAvailabilityWindowRequest) (*dto.AvailabilityWindowResponse, error) {
	window, err := u.windowRepo.FindByID(u.db.WithContext(ctx), windowID)
	if err != nil {
		u.log.Warnf("Failed to find availability window %d: %+v", windowID, err)
		return nil, err
	}
	if window == nil {
		return nil, ErrWindowNotFound
	}
	if window.DoctorID != doctorID {
		return nil, ErrWindowNotOwned
	}

	oldValue := windowAuditValue(window)

	if req.StartTime != nil {
		window.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		window.EndTime = *req.EndTime
	}

	if err := validateWindowTimes(window.StartTime, window.EndTime); err != nil {
		return nil, err
	}

	if err := u.windowRepo.Update(u.db.WithContext(ctx), window); err != nil {
		u.log.Warnf("Failed to update availability window %d: %+v", windowID, err)
		return nil, err
	}

	u.auditService.LogChange(u.db.WithContext(ctx), &doctorID, entity.AuditActionAvailabilityUpdate,
		"availability_window", strconv.Itoa(window.ID), oldValue, windowAuditValue(window))

	return converter.AvailabilityWindowToResponse(window), nil
}

func (u *availabilityUsecase) DeleteWindow(ctx context.Context, doctorID uuid.UUID, windowID int) error {
	window, err := u.windowRepo.FindByID(u.db.WithContext(ctx), windowID)
	if err != nil {
		u.log.Warnf("Failed to find availability window %d: %+v", windowID, err)
		return err
	}
	if window == nil {
		return ErrWindowNotFound
	}
	if window.DoctorID != doctorID {
		return ErrWindowNotOwned
	}

	if _, err := u.windowRepo.Delete(u.db.WithContext(ctx), windowID); err != nil {
		u.log.Warnf("Failed to delete availability window %d: %+v", windowID, err)
		return err
	}

	u.auditService.LogChange(u.db.WithContext(ctx), &doctorID, entity.AuditActionAvailabilityDelete,
		"availability_window", strconv.Itoa(window.ID), windowAuditValue(window), nil)

	return nil
}

func windowAuditValue(window *entity.AvailabilityWindow) entity.JSON {
	return entity.JSON{
		"day_of_week": int(window.DayOfWeek),
		"start_time":  window.StartTime,
		"end_time":    window.EndTime,
	}
}
