package service

import (
	"io"
	"testing"
	"time"

	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*entity.DoctorProfile
}

func (f *fakeDoctorRepo) Create(db *gorm.DB, profile *entity.DoctorProfile) error { return nil }
func (f *fakeDoctorRepo) Update(db *gorm.DB, profile *entity.DoctorProfile) error { return nil }
func (f *fakeDoctorRepo) Delete(db *gorm.DB, userID uuid.UUID) error              { return nil }
func (f *fakeDoctorRepo) FindAll(db *gorm.DB) ([]entity.DoctorProfile, error)     { return nil, nil }

func (f *fakeDoctorRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	return f.doctors[userID], nil
}

func (f *fakeDoctorRepo) FindWithAvailability(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	return f.doctors[userID], nil
}

type fakeAppointmentRepo struct {
	appointments []entity.Appointment
	updated      []entity.Appointment
	updateErr    map[uuid.UUID]error
}

func (f *fakeAppointmentRepo) Create(db *gorm.DB, a *entity.Appointment) error {
	f.appointments = append(f.appointments, *a)
	return nil
}

func (f *fakeAppointmentRepo) Update(db *gorm.DB, a *entity.Appointment) error {
	if err := f.updateErr[a.ID]; err != nil {
		return err
	}
	f.updated = append(f.updated, *a)
	return nil
}

func (f *fakeAppointmentRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	for i := range f.appointments {
		if f.appointments[i].ID == id {
			return &f.appointments[i], nil
		}
	}
	return nil, nil
}

func (f *fakeAppointmentRepo) FindByPatientID(db *gorm.DB, patientID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	return nil, nil
}

// live returns the non-cancelled appointments for doctorID on date,
// minus the excluded one.
func (f *fakeAppointmentRepo) live(doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) []entity.Appointment {
	var out []entity.Appointment
	for _, a := range f.appointments {
		if a.DoctorID != doctorID || !a.Date.Equal(date) {
			continue
		}
		if a.Status == entity.AppointmentStatusCancelled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (f *fakeAppointmentRepo) FindAtSlot(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error) {
	for _, a := range f.live(doctorID, date, excludeID) {
		if a.StartTime == startTime {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeAppointmentRepo) FindNearestBefore(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error) {
	var best *entity.Appointment
	for _, a := range f.live(doctorID, date, excludeID) {
		a := a
		if a.StartTime < startTime && (best == nil || a.StartTime > best.StartTime) {
			best = &a
		}
	}
	return best, nil
}

func (f *fakeAppointmentRepo) FindNearestAfter(db *gorm.DB, doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) (*entity.Appointment, error) {
	var best *entity.Appointment
	for _, a := range f.live(doctorID, date, excludeID) {
		a := a
		if a.StartTime > startTime && (best == nil || a.StartTime < best.StartTime) {
			best = &a
		}
	}
	return best, nil
}

func (f *fakeAppointmentRepo) FindConfirmedPast(db *gorm.DB, cutoff time.Time) ([]entity.Appointment, error) {
	var out []entity.Appointment
	for _, a := range f.appointments {
		if a.Status == entity.AppointmentStatusConfirmed && !a.IsArchived && a.Date.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Monday 2025-06-02, noon.
var testNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) (*SchedulingService, uuid.UUID, *fakeAppointmentRepo) {
	t.Helper()

	doctorID := uuid.New()
	doctorRepo := &fakeDoctorRepo{
		doctors: map[uuid.UUID]*entity.DoctorProfile{
			doctorID: {
				UserID: doctorID,
				Availability: []entity.AvailabilityWindow{
					{DoctorID: doctorID, DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "12:00"},
					{DoctorID: doctorID, DayOfWeek: time.Wednesday, StartTime: "13:00", EndTime: "17:00"},
				},
			},
		},
	}
	appointmentRepo := &fakeAppointmentRepo{}

	svc := NewSchedulingService(nil, quietLogger(), clock.Fixed(testNow), doctorRepo, appointmentRepo)
	return svc, doctorID, appointmentRepo
}

func TestValidateSlot(t *testing.T) {
	svc, _, _ := newTestScheduler(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.ValidateSlot(monday, "09:00"))
	require.NoError(t, svc.ValidateSlot(monday, "08:00"))
	require.NoError(t, svc.ValidateSlot(monday, "16:30"))

	require.ErrorIs(t, svc.ValidateSlot(monday, "9am"), ErrMalformedTime)
	require.ErrorIs(t, svc.ValidateSlot(monday, "0900"), ErrMalformedTime)

	require.ErrorIs(t, svc.ValidateSlot(monday, "07:30"), ErrOutsideClinicHours)
	// closing time is not a bookable start
	require.ErrorIs(t, svc.ValidateSlot(monday, "17:00"), ErrOutsideClinicHours)
	require.ErrorIs(t, svc.ValidateSlot(monday, "23:30"), ErrOutsideClinicHours)

	require.ErrorIs(t, svc.ValidateSlot(monday, "08:15"), ErrInvalidGranularity)
	require.ErrorIs(t, svc.ValidateSlot(monday, "09:01"), ErrInvalidGranularity)

	yesterday := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.ErrorIs(t, svc.ValidateSlot(yesterday, "09:00"), ErrPastDate)

	// booking later today is allowed, the date is not in the past
	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.ValidateSlot(today, "15:00"))
}

func TestBookingGateUnknownDoctor(t *testing.T) {
	svc, _, _ := newTestScheduler(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	err := svc.ValidateAndCheckAvailability(uuid.New(), monday, "09:00", nil)
	require.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestBookingGateAvailabilityWindows(t *testing.T) {
	svc, doctorID, _ := newTestScheduler(t)

	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.ValidateAndCheckAvailability(doctorID, monday, "09:00", nil))
	require.NoError(t, svc.ValidateAndCheckAvailability(doctorID, wednesday, "16:30", nil))

	// no window at all on Tuesday; the error names the doctor and slot
	err := svc.ValidateAndCheckAvailability(doctorID, tuesday, "09:00", nil)
	require.ErrorIs(t, err, ErrNoAvailability)
	require.Contains(t, err.Error(), doctorID.String())
	require.Contains(t, err.Error(), "Tuesday 09:00")

	// Monday window ends at 12:00, the end is exclusive
	err = svc.ValidateAndCheckAvailability(doctorID, monday, "12:00", nil)
	require.ErrorIs(t, err, ErrNoAvailability)

	// inside clinic hours but before the Monday window opens
	err = svc.ValidateAndCheckAvailability(doctorID, monday, "08:00", nil)
	require.ErrorIs(t, err, ErrNoAvailability)
}

func TestBookingGateSlotTaken(t *testing.T) {
	svc, doctorID, repo := newTestScheduler(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	repo.appointments = []entity.Appointment{
		{ID: uuid.New(), DoctorID: doctorID, Date: monday, StartTime: "09:00", Status: entity.AppointmentStatusConfirmed},
	}

	err := svc.ValidateAndCheckAvailability(doctorID, monday, "09:00", nil)
	require.ErrorIs(t, err, ErrSlotTaken)

	// the adjacent slot is exactly one buffer away and bookable
	require.NoError(t, svc.ValidateAndCheckAvailability(doctorID, monday, "09:30", nil))
}

func TestBookingGateCancelledSlotIsFree(t *testing.T) {
	svc, doctorID, repo := newTestScheduler(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	repo.appointments = []entity.Appointment{
		{ID: uuid.New(), DoctorID: doctorID, Date: monday, StartTime: "09:00", Status: entity.AppointmentStatusCancelled},
	}

	require.NoError(t, svc.ValidateAndCheckAvailability(doctorID, monday, "09:00", nil))
}

func TestBookingGateInsufficientBuffer(t *testing.T) {
	svc, doctorID, repo := newTestScheduler(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	// A legacy record sitting off the 30-minute grid: a 09:30 request is
	// only 15 minutes after it, a 09:00 request only 15 minutes before.
	repo.appointments = []entity.Appointment{
		{ID: uuid.New(), DoctorID: doctorID, Date: monday, StartTime: "09:15", Status: entity.AppointmentStatusConfirmed},
	}

	err := svc.ValidateAndCheckAvailability(doctorID, monday, "09:30", nil)
	require.ErrorIs(t, err, ErrInsufficientBuffer)

	err = svc.ValidateAndCheckAvailability(doctorID, monday, "09:00", nil)
	require.ErrorIs(t, err, ErrInsufficientBuffer)

	// 10:00 is 45 minutes after the neighbor and fine
	require.NoError(t, svc.ValidateAndCheckAvailability(doctorID, monday, "10:00", nil))
}

func TestBookingGateExcludesAppointmentBeingEdited(t *testing.T) {
	svc, doctorID, repo := newTestScheduler(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	editing := uuid.New()
	repo.appointments = []entity.Appointment{
		{ID: editing, DoctorID: doctorID, Date: monday, StartTime: "09:00", Status: entity.AppointmentStatusConfirmed},
	}

	// without the exclusion the appointment collides with itself
	err := svc.ValidateAndCheckAvailability(doctorID, monday, "09:00", nil)
	require.ErrorIs(t, err, ErrSlotTaken)

	// keeping the same slot during an edit is fine
	require.NoError(t, svc.ValidateAndCheckAvailability(doctorID, monday, "09:00", &editing))

	// and another record in the slot still blocks the edit
	repo.appointments = append(repo.appointments, entity.Appointment{
		ID: uuid.New(), DoctorID: doctorID, Date: monday, StartTime: "09:00", Status: entity.AppointmentStatusPending,
	})
	err = svc.ValidateAndCheckAvailability(doctorID, monday, "09:00", &editing)
	require.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookingGateChecksStructureFirst(t *testing.T) {
	svc, _, _ := newTestScheduler(t)
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	// structural failures win over the unknown doctor
	err := svc.ValidateAndCheckAvailability(uuid.New(), monday, "08:15", nil)
	require.ErrorIs(t, err, ErrInvalidGranularity)
}
