package usecase

import (
	"context"
	"errors"
	"time"

	"clinic-appointment-service/internal/converter"
	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/internal/domain/repository"
	"clinic-appointment-service/internal/service"
	"clinic-appointment-service/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAppointmentNotOwned = errors.New("appointment does not belong to you")
	ErrAppointmentLocked   = errors.New("appointment can no longer be edited")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrInvalidDate         = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidStatus       = errors.New("unknown appointment status")
)

type AppointmentUsecase interface {
	CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) error
	CreateAppointment(ctx context.Context, patientID uuid.UUID, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	GetAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID) (*dto.AppointmentResponse, error)
	GetAppointments(ctx context.Context, actor entity.Actor, req *dto.ListAppointmentsRequest) (*dto.AppointmentListResponse, error)
	UpdateAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error)
	ChangeStatus(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.ChangeAppointmentStatusRequest) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	db                 *gorm.DB
	log                *logrus.Logger
	clock              clock.Clock
	scheduling         *service.SchedulingService
	appointmentRepo    repository.AppointmentRepository
	patientProfileRepo repository.PatientProfileRepository
	auditService       service.AuditService
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	clk clock.Clock,
	scheduling *service.SchedulingService,
	appointmentRepo repository.AppointmentRepository,
	patientProfileRepo repository.PatientProfileRepository,
	auditService service.AuditService,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:                 db,
		log:                log,
		clock:              clk,
		scheduling:         scheduling,
		appointmentRepo:    appointmentRepo,
		patientProfileRepo: patientProfileRepo,
		auditService:       auditService,
	}
}

// CheckAvailability runs the booking gate without writing anything.
func (u *appointmentUsecase) CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) error {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return ErrInvalidDate
	}
	return u.scheduling.ValidateAndCheckAvailability(req.DoctorID, date, req.StartTime, req.ExcludeAppointmentID)
}

// CreateAppointment books a new slot for the patient. The scheduling gate
// runs first; the partial unique slot index catches the remaining race
// between two concurrent requests, and a write-time uniqueness violation
// comes back as ErrSlotTaken like any other collision.
func (u *appointmentUsecase) CreateAppointment(ctx context.Context, patientID uuid.UUID, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	patient, err := u.patientProfileRepo.FindByUserID(u.db.WithContext(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	if err := u.scheduling.ValidateAndCheckAvailability(req.DoctorID, date, req.StartTime, nil); err != nil {
		return nil, err
	}

	appointment := &entity.Appointment{
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		StartTime: req.StartTime,
		Status:    entity.AppointmentStatusPending,
		Reason:    req.Reason,
		Notes:     req.Notes,
	}

	if err := u.appointmentRepo.Create(u.db.WithContext(ctx), appointment); err != nil {
		if isDuplicateKeyError(err, "uniq_doctor_slot") {
			return nil, service.ErrSlotTaken
		}
		// The doctor passed the gate but was removed before the insert
		if isForeignKeyError(err, "doctor_id") {
			return nil, service.ErrDoctorNotFound
		}
		u.log.Warnf("Failed to create appointment: %+v", err)
		return nil, err
	}

	u.auditService.LogChange(u.db.WithContext(ctx), &patientID, entity.AuditActionAppointmentCreate,
		"appointment", appointment.ID.String(), nil, appointmentAuditValue(appointment))

	full, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointment.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload appointment %s: %+v", appointment.ID, err)
		return converter.AppointmentToResponse(appointment), nil
	}

	u.log.Infof("Appointment created: id=%s, doctor=%s, date=%s %s", appointment.ID, req.DoctorID, req.Date, req.StartTime)
	return converter.AppointmentToResponse(full), nil
}

func (u *appointmentUsecase) GetAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !ownsAppointment(actor, appointment) {
		return nil, ErrAppointmentNotOwned
	}

	return converter.AppointmentToResponse(appointment), nil
}

// GetAppointments lists the actor's own appointments. Archived records are
// excluded unless explicitly requested.
func (u *appointmentUsecase) GetAppointments(ctx context.Context, actor entity.Actor, req *dto.ListAppointmentsRequest) (*dto.AppointmentListResponse, error) {
	filter := &entity.AppointmentFilter{}
	if req != nil {
		filter.StartAt = req.StartAt
		filter.EndAt = req.EndAt
		filter.Status = req.Status
		filter.IncludeArchived = req.IncludeArchived
	}

	var (
		appointments []entity.Appointment
		err          error
	)
	if actor.IsDoctor() {
		appointments, err = u.appointmentRepo.FindByDoctorID(u.db.WithContext(ctx), actor.ID, filter)
	} else {
		appointments, err = u.appointmentRepo.FindByPatientID(u.db.WithContext(ctx), actor.ID, filter)
	}
	if err != nil {
		u.log.Warnf("Failed to list appointments for %s %s: %+v", actor.Role, actor.ID, err)
		return nil, err
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

// UpdateAppointment edits date, time, reason or notes. Date and time
// changes re-run the scheduling gate with the appointment itself excluded,
// so re-submitting the current slot is not a collision. Once a terminal
// status is reached only the notes stay editable.
func (u *appointmentUsecase) UpdateAppointment(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.UpdateAppointmentRequest) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !ownsAppointment(actor, appointment) {
		return nil, ErrAppointmentNotOwned
	}

	changesSchedule := req.Date != nil || req.StartTime != nil
	if appointment.Status.IsTerminal() && (changesSchedule || req.Reason != nil) {
		return nil, ErrAppointmentLocked
	}

	oldValue := appointmentAuditValue(appointment)

	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		appointment.Date = date
	}
	if req.StartTime != nil {
		appointment.StartTime = *req.StartTime
	}
	if req.Reason != nil {
		appointment.Reason = *req.Reason
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}

	if changesSchedule {
		if err := u.scheduling.ValidateAndCheckAvailability(appointment.DoctorID, appointment.Date, appointment.StartTime, &appointment.ID); err != nil {
			return nil, err
		}
	}

	if err := u.appointmentRepo.Update(u.db.WithContext(ctx), appointment); err != nil {
		if isDuplicateKeyError(err, "uniq_doctor_slot") {
			return nil, service.ErrSlotTaken
		}
		u.log.Warnf("Failed to update appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	u.auditService.LogChange(u.db.WithContext(ctx), &actor.ID, entity.AuditActionAppointmentUpdate,
		"appointment", appointment.ID.String(), oldValue, appointmentAuditValue(appointment))

	return converter.AppointmentToResponse(appointment), nil
}

// ChangeStatus applies a lifecycle transition. Only the owning doctor may
// drive the lifecycle; the owning patient may only cancel, and the state
// machine decides whether the cancellation is still allowed.
func (u *appointmentUsecase) ChangeStatus(ctx context.Context, actor entity.Actor, appointmentID uuid.UUID, req *dto.ChangeAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	requested := entity.AppointmentStatus(req.Status)
	if !requested.IsValid() {
		return nil, ErrInvalidStatus
	}

	appointment, err := u.appointmentRepo.FindByID(u.db.WithContext(ctx), appointmentID)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", appointmentID, err)
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !ownsAppointment(actor, appointment) {
		return nil, ErrAppointmentNotOwned
	}
	if actor.IsPatient() && requested != entity.AppointmentStatusCancelled {
		return nil, ErrAppointmentNotOwned
	}

	previous := appointment.Status
	if err := appointment.Transition(requested, actor, u.clock.Now()); err != nil {
		return nil, err
	}

	if err := u.appointmentRepo.Update(u.db.WithContext(ctx), appointment); err != nil {
		u.log.Warnf("Failed to persist status change for appointment %s: %+v", appointmentID, err)
		return nil, err
	}

	u.auditService.LogChange(u.db.WithContext(ctx), &actor.ID, entity.AuditActionAppointmentStatus,
		"appointment", appointment.ID.String(),
		string(previous), string(appointment.Status))

	u.log.Infof("Appointment %s: %s -> %s by %s", appointmentID, previous, appointment.Status, actor.Role)
	return converter.AppointmentToResponse(appointment), nil
}

func ownsAppointment(actor entity.Actor, appointment *entity.Appointment) bool {
	switch actor.Role {
	case entity.ActorRoleDoctor:
		return appointment.DoctorID == actor.ID
	case entity.ActorRolePatient:
		return appointment.PatientID == actor.ID
	}
	return false
}

func appointmentAuditValue(appointment *entity.Appointment) entity.JSON {
	return entity.JSON{
		"date":       appointment.Date.Format("2006-01-02"),
		"start_time": appointment.StartTime,
		"status":     string(appointment.Status),
		"reason":     appointment.Reason,
	}
}
