package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"clinic-appointment-service/internal/delivery/dto"
	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/internal/service"
	"clinic-appointment-service/pkg/clock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubDoctorRepo struct {
	doctors map[uuid.UUID]*entity.DoctorProfile
}

func (s *stubDoctorRepo) Create(db *gorm.DB, profile *entity.DoctorProfile) error { return nil }
func (s *stubDoctorRepo) Update(db *gorm.DB, profile *entity.DoctorProfile) error { return nil }
func (s *stubDoctorRepo) Delete(db *gorm.DB, userID uuid.UUID) error              { return nil }
func (s *stubDoctorRepo) FindAll(db *gorm.DB) ([]entity.DoctorProfile, error)     { return nil, nil }

func (s *stubDoctorRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	return s.doctors[userID], nil
}

func (s *stubDoctorRepo) FindWithAvailability(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	return s.doctors[userID], nil
}

type stubPatientRepo struct {
	patients map[uuid.UUID]*entity.PatientProfile
}

func (s *stubPatientRepo) Create(db *gorm.DB, profile *entity.PatientProfile) error { return nil }
func (s *stubPatientRepo) Update(db *gorm.DB, profile *entity.PatientProfile) error { return nil }
func (s *stubPatientRepo) Delete(db *gorm.DB, userID uuid.UUID) error               { return nil }
func (s *stubPatientRepo) FindAll(db *gorm.DB) ([]entity.PatientProfile, error)     { return nil, nil }

func (s *stubPatientRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	return s.patients[userID], nil
}

// stubAppointmentRepo keeps appointments in memory. createErr and updateErr
// are returned verbatim from the corresponding write, standing in for the
// raw driver errors a real database would produce.
type stubAppointmentRepo struct {
	appointments []entity.Appointment
	createErr    error
	updateErr    error
}

func (s *stubAppointmentRepo) Create(db *gorm.DB, a *entity.Appointment) error {
	if s.createErr != nil {
		return s.createErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.appointments = append(s.appointments, *a)
	return nil
}

func (s *stubAppointmentRepo) Update(db *gorm.DB, a *entity.Appointment) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	for i := range s.appointments {
		if s.appointments[i].ID == a.ID {
			s.appointments[i] = *a
		}
	}
	return nil
}

func (s *stubAppointmentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			found := s.appointments[i]
			return &found, nil
		}
	}
	return nil, nil
}

func (s *stubAppointmentRepo) FindByPatientID(db *gorm.DB, patientID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range s.appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubAppointmentRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range s.appointments {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubAppointmentRepo) FindAtSlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error) {
	for _, a := range s.appointments {
		if a.DoctorID != doctorID || !a.Date.Equal(date) || a.StartTime != startTime {
			continue
		}
		if a.Status == entity.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		found := a
		return &found, nil
	}
	return nil, nil
}

func (s *stubAppointmentRepo) FindNearestBefore(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error) {
	return nil, nil
}

func (s *stubAppointmentRepo) FindNearestAfter(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error) {
	return nil, nil
}

func (s *stubAppointmentRepo) FindConfirmedPast(db *gorm.DB, cutoff time.Time) ([]entity.Appointment, error) {
	return nil, nil
}

type nullAuditRepo struct{}

func (nullAuditRepo) Create(db *gorm.DB, log *entity.AuditLog) error          { return nil }
func (nullAuditRepo) FindAll(db *gorm.DB) ([]entity.AuditLog, error)          { return nil, nil }
func (nullAuditRepo) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) { return nil, nil }

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// detachedDB returns a gorm handle that never reaches a database. The
// usecases derive per-request sessions from it; the stub repositories
// ignore the handle entirely.
func detachedDB() *gorm.DB {
	return &gorm.DB{Config: &gorm.Config{}, Statement: &gorm.Statement{}}
}

// Monday 2025-06-02, noon.
var usecaseNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

type usecaseFixture struct {
	usecase         AppointmentUsecase
	doctorID        uuid.UUID
	patientID       uuid.UUID
	appointmentRepo *stubAppointmentRepo
}

func newAppointmentFixture(t *testing.T) *usecaseFixture {
	t.Helper()

	doctorID := uuid.New()
	patientID := uuid.New()

	doctorRepo := &stubDoctorRepo{
		doctors: map[uuid.UUID]*entity.DoctorProfile{
			doctorID: {
				UserID: doctorID,
				Availability: []entity.AvailabilityWindow{
					{DoctorID: doctorID, DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "12:00"},
				},
			},
		},
	}
	patientRepo := &stubPatientRepo{
		patients: map[uuid.UUID]*entity.PatientProfile{
			patientID: {UserID: patientID},
		},
	}
	appointmentRepo := &stubAppointmentRepo{}

	log := discardLogger()
	clk := clock.Fixed(usecaseNow)
	scheduling := service.NewSchedulingService(nil, log, clk, doctorRepo, appointmentRepo)
	auditService := service.NewAuditService(log, nullAuditRepo{})

	uc := NewAppointmentUsecase(detachedDB(), log, clk, scheduling, appointmentRepo, patientRepo, auditService)
	return &usecaseFixture{
		usecase:         uc,
		doctorID:        doctorID,
		patientID:       patientID,
		appointmentRepo: appointmentRepo,
	}
}

func validCreateRequest(doctorID uuid.UUID) *dto.CreateAppointmentRequest {
	return &dto.CreateAppointmentRequest{
		DoctorID:  doctorID,
		Date:      "2025-06-09",
		StartTime: "09:00",
		Reason:    "Recurring lower back pain",
	}
}

func TestCreateAppointment(t *testing.T) {
	f := newAppointmentFixture(t)

	resp, err := f.usecase.CreateAppointment(context.Background(), f.patientID, validCreateRequest(f.doctorID))
	require.NoError(t, err)
	require.Equal(t, f.doctorID, resp.DoctorID)
	require.Equal(t, f.patientID, resp.PatientID)
	require.Equal(t, "2025-06-09", resp.Date)
	require.Equal(t, "09:00", resp.StartTime)
	require.Equal(t, string(entity.AppointmentStatusPending), resp.Status)
	require.Len(t, f.appointmentRepo.appointments, 1)
}

func TestCreateAppointmentUnknownPatient(t *testing.T) {
	f := newAppointmentFixture(t)

	_, err := f.usecase.CreateAppointment(context.Background(), uuid.New(), validCreateRequest(f.doctorID))
	require.ErrorIs(t, err, ErrPatientNotFound)
	require.Empty(t, f.appointmentRepo.appointments)
}

func TestCreateAppointmentRunsGate(t *testing.T) {
	f := newAppointmentFixture(t)

	req := validCreateRequest(f.doctorID)
	req.StartTime = "13:00" // outside the Monday window
	_, err := f.usecase.CreateAppointment(context.Background(), f.patientID, req)
	require.ErrorIs(t, err, service.ErrNoAvailability)
	require.Empty(t, f.appointmentRepo.appointments)
}

// A racing booking can slip between the gate and the insert; the slot
// index violation surfaced by the driver must read as a plain collision.
func TestCreateAppointmentMapsSlotIndexViolation(t *testing.T) {
	f := newAppointmentFixture(t)
	f.appointmentRepo.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "uniq_doctor_slot"}

	_, err := f.usecase.CreateAppointment(context.Background(), f.patientID, validCreateRequest(f.doctorID))
	require.ErrorIs(t, err, service.ErrSlotTaken)
}

func TestCreateAppointmentMapsUnrelatedUniqueViolation(t *testing.T) {
	f := newAppointmentFixture(t)
	f.appointmentRepo.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "some_other_index"}

	_, err := f.usecase.CreateAppointment(context.Background(), f.patientID, validCreateRequest(f.doctorID))
	require.NotErrorIs(t, err, service.ErrSlotTaken)
}

func TestCreateAppointmentMapsDeletedDoctor(t *testing.T) {
	f := newAppointmentFixture(t)
	f.appointmentRepo.createErr = &pgconn.PgError{Code: "23503", ConstraintName: "appointments_doctor_id_fkey"}

	_, err := f.usecase.CreateAppointment(context.Background(), f.patientID, validCreateRequest(f.doctorID))
	require.ErrorIs(t, err, service.ErrDoctorNotFound)
}

func (f *usecaseFixture) seedAppointment(t *testing.T, status entity.AppointmentStatus) uuid.UUID {
	t.Helper()
	appointment := &entity.Appointment{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Date:      time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		Status:    status,
	}
	require.NoError(t, f.appointmentRepo.Create(nil, appointment))
	return appointment.ID
}

func TestChangeStatusPatientMayOnlyCancel(t *testing.T) {
	f := newAppointmentFixture(t)
	id := f.seedAppointment(t, entity.AppointmentStatusConfirmed)
	patient := entity.PatientActor(f.patientID)

	for _, status := range []string{"confirmed", "completed", "no-show"} {
		_, err := f.usecase.ChangeStatus(context.Background(), patient, id, &dto.ChangeAppointmentStatusRequest{Status: status})
		require.ErrorIs(t, err, ErrAppointmentNotOwned, "patient requested %s", status)
	}

	resp, err := f.usecase.ChangeStatus(context.Background(), patient, id, &dto.ChangeAppointmentStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	require.Equal(t, string(entity.AppointmentStatusCancelled), resp.Status)
}

func TestChangeStatusDoctorConfirms(t *testing.T) {
	f := newAppointmentFixture(t)
	id := f.seedAppointment(t, entity.AppointmentStatusPending)

	resp, err := f.usecase.ChangeStatus(context.Background(), entity.DoctorActor(f.doctorID), id, &dto.ChangeAppointmentStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	require.Equal(t, string(entity.AppointmentStatusConfirmed), resp.Status)

	stored, err := f.appointmentRepo.FindByID(nil, id)
	require.NoError(t, err)
	require.Equal(t, entity.AppointmentStatusConfirmed, stored.Status)
}

func TestChangeStatusRejectsStrangers(t *testing.T) {
	f := newAppointmentFixture(t)
	id := f.seedAppointment(t, entity.AppointmentStatusConfirmed)

	_, err := f.usecase.ChangeStatus(context.Background(), entity.PatientActor(uuid.New()), id, &dto.ChangeAppointmentStatusRequest{Status: "cancelled"})
	require.ErrorIs(t, err, ErrAppointmentNotOwned)

	_, err = f.usecase.ChangeStatus(context.Background(), entity.DoctorActor(uuid.New()), id, &dto.ChangeAppointmentStatusRequest{Status: "confirmed"})
	require.ErrorIs(t, err, ErrAppointmentNotOwned)
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	f := newAppointmentFixture(t)
	id := f.seedAppointment(t, entity.AppointmentStatusPending)

	_, err := f.usecase.ChangeStatus(context.Background(), entity.DoctorActor(f.doctorID), id, &dto.ChangeAppointmentStatusRequest{Status: "rescheduled"})
	require.ErrorIs(t, err, ErrInvalidStatus)
}
