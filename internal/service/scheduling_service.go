package service

import (
	"errors"
	"fmt"
	"time"

	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/internal/domain/repository"
	"clinic-appointment-service/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrMalformedTime      = errors.New("invalid time format, use HH:MM")
	ErrOutsideClinicHours = errors.New("time is outside clinic hours (08:00-17:00)")
	ErrInvalidGranularity = errors.New("time must be on a 30-minute boundary")
	ErrPastDate           = errors.New("cannot book a past date")
	ErrNoAvailability     = errors.New("doctor has no availability at the requested time")
	ErrSlotTaken          = errors.New("slot is already booked")
	ErrInsufficientBuffer = errors.New("slot is too close to an existing appointment")
)

// Clinic scheduling rules. The day is cut into 30-minute slots between
// opening and closing; closing time itself is not a bookable start.
const (
	ClinicOpenHour      = 8
	ClinicCloseHour     = 17
	SlotIntervalMinutes = 30
	MinBufferMinutes    = 30
)

// SchedulingService decides whether a (doctor, date, time) slot may be
// booked. It is a read-only gate: callers run it immediately before every
// create and every date/time-changing edit, then persist. Two concurrent
// requests can both pass the gate, the partial unique index on
// (doctor_id, date, start_time) among non-cancelled appointments is the
// last line of defense at write time.
type SchedulingService struct {
	db              *gorm.DB
	log             *logrus.Logger
	clock           clock.Clock
	doctorRepo      repository.DoctorProfileRepository
	appointmentRepo repository.AppointmentRepository
}

func NewSchedulingService(
	db *gorm.DB,
	log *logrus.Logger,
	clk clock.Clock,
	doctorRepo repository.DoctorProfileRepository,
	appointmentRepo repository.AppointmentRepository,
) *SchedulingService {
	return &SchedulingService{
		db:              db,
		log:             log,
		clock:           clk,
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
	}
}

// minutesOfDay parses an HH:MM string into minutes since midnight.
func minutesOfDay(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, ErrMalformedTime
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateSlot runs the structural slot checks: well-formed time, inside
// clinic hours, 30-minute granularity, and date not in the past. It does
// not consult availability windows or existing bookings.
func (s *SchedulingService) ValidateSlot(date time.Time, startTime string) error {
	minutes, err := minutesOfDay(startTime)
	if err != nil {
		return err
	}

	// 17:00 is the closing boundary, not a valid start.
	if minutes < ClinicOpenHour*60 || minutes >= ClinicCloseHour*60 {
		return ErrOutsideClinicHours
	}

	if minutes%SlotIntervalMinutes != 0 {
		return ErrInvalidGranularity
	}

	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	requested := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	if requested.Before(today) {
		return ErrPastDate
	}

	return nil
}

// checkAvailability verifies the doctor has a declared open window covering
// the requested weekday and time.
func (s *SchedulingService) checkAvailability(doctor *entity.DoctorProfile, date time.Time, startTime string) error {
	minutes, err := minutesOfDay(startTime)
	if err != nil {
		return err
	}

	weekday := date.Weekday()
	for _, window := range doctor.Availability {
		if window.DayOfWeek != weekday {
			continue
		}
		start, err := minutesOfDay(window.StartTime)
		if err != nil {
			s.log.Warnf("Skipping malformed availability window %d for doctor %s: %+v", window.ID, doctor.UserID, err)
			continue
		}
		end, err := minutesOfDay(window.EndTime)
		if err != nil {
			s.log.Warnf("Skipping malformed availability window %d for doctor %s: %+v", window.ID, doctor.UserID, err)
			continue
		}
		if start <= minutes && minutes < end {
			return nil
		}
	}

	return fmt.Errorf("doctor %s has no window covering %s %s: %w",
		doctor.UserID, weekday, startTime, ErrNoAvailability)
}

// ValidateAndCheckAvailability is the composite booking gate.
//
// Order of checks:
//  1. structural slot checks (format, clinic hours, granularity, past date)
//  2. doctor exists and has an open window for the weekday/time
//  3. exact-match collision against non-cancelled appointments -> ErrSlotTaken
//  4. nearest neighbors before and after must be at least MinBufferMinutes
//     away -> ErrInsufficientBuffer
//
// The exact-match check is subsumed by the buffer checks when the buffer is
// at least the slot size, but callers distinguish the two error kinds, so
// both are kept.
//
// excludeID, when non-nil, names an appointment being edited; it is ignored
// in all collision checks so an edit never conflicts with itself.
func (s *SchedulingService) ValidateAndCheckAvailability(doctorID uuid.UUID, date time.Time, startTime string, excludeID *uuid.UUID) error {
	if err := s.ValidateSlot(date, startTime); err != nil {
		return err
	}

	doctor, err := s.doctorRepo.FindWithAvailability(s.db, doctorID)
	if err != nil {
		s.log.Warnf("Failed to load doctor %s: %+v", doctorID, err)
		return err
	}
	if doctor == nil {
		return ErrDoctorNotFound
	}

	if err := s.checkAvailability(doctor, date, startTime); err != nil {
		return err
	}

	existing, err := s.appointmentRepo.FindAtSlot(s.db, doctorID, date, startTime, excludeID)
	if err != nil {
		s.log.Warnf("Failed to check slot %s %s for doctor %s: %+v", date.Format("2006-01-02"), startTime, doctorID, err)
		return err
	}
	if existing != nil {
		return ErrSlotTaken
	}

	requested, err := minutesOfDay(startTime)
	if err != nil {
		return err
	}

	before, err := s.appointmentRepo.FindNearestBefore(s.db, doctorID, date, startTime, excludeID)
	if err != nil {
		s.log.Warnf("Failed to find preceding appointment for doctor %s: %+v", doctorID, err)
		return err
	}
	if before != nil {
		neighbor, err := minutesOfDay(before.StartTime)
		if err == nil && requested-neighbor < MinBufferMinutes {
			return ErrInsufficientBuffer
		}
	}

	after, err := s.appointmentRepo.FindNearestAfter(s.db, doctorID, date, startTime, excludeID)
	if err != nil {
		s.log.Warnf("Failed to find following appointment for doctor %s: %+v", doctorID, err)
		return err
	}
	if after != nil {
		neighbor, err := minutesOfDay(after.StartTime)
		if err == nil && neighbor-requested < MinBufferMinutes {
			return ErrInsufficientBuffer
		}
	}

	return nil
}
