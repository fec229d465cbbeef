package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"clinic-appointment-service/internal/domain/entity"
	"clinic-appointment-service/internal/domain/repository"
	"clinic-appointment-service/pkg/clock"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ArchivalService retires stale appointments in the background: confirmed
// appointments whose date has passed are promoted to completed and archived.
//
// The sweep runs once when Start is called and then daily at the configured
// wall-clock time. Runs never overlap: a sweep that fires while a prior one
// is still executing is skipped. Per-record failures are logged and skipped,
// a failure to query the batch yields a zero count and is retried on the
// next scheduled run.
type ArchivalService struct {
	db              *gorm.DB
	log             *logrus.Logger
	clock           clock.Clock
	appointmentRepo repository.AppointmentRepository
	auditService    AuditService

	runHour   int
	runMinute int

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  atomic.Bool
	stopped  atomic.Bool
}

// NewArchivalService creates an ArchivalService. runAt is the daily run time
// as HH:MM (24h) in the clock's local time.
func NewArchivalService(
	db *gorm.DB,
	log *logrus.Logger,
	clk clock.Clock,
	appointmentRepo repository.AppointmentRepository,
	auditService AuditService,
	runAt string,
) (*ArchivalService, error) {
	t, err := time.Parse("15:04", runAt)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep run time %q: %w", runAt, err)
	}

	return &ArchivalService{
		db:              db,
		log:             log,
		clock:           clk,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
		runHour:         t.Hour(),
		runMinute:       t.Minute(),
		stopChan:        make(chan struct{}),
	}, nil
}

// Start runs an immediate sweep and then schedules the daily loop.
// Call Stop during graceful shutdown.
func (s *ArchivalService) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop shuts the scheduling loop down. Safe to call multiple times.
func (s *ArchivalService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("ArchivalService stopped")
	}
}

func (s *ArchivalService) loop() {
	defer s.wg.Done()

	if count, err := s.RunSweep(); err != nil {
		s.log.Warnf("Startup archival sweep failed: %+v", err)
	} else {
		s.log.Infof("Startup archival sweep archived %d appointment(s)", count)
	}

	for {
		timer := time.NewTimer(s.untilNextRun())
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			if count, err := s.RunSweep(); err != nil {
				s.log.Warnf("Scheduled archival sweep failed: %+v", err)
			} else {
				s.log.Infof("Scheduled archival sweep archived %d appointment(s)", count)
			}
		}
	}
}

// untilNextRun returns the duration until the next daily run time.
func (s *ArchivalService) untilNextRun() time.Duration {
	now := s.clock.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.runHour, s.runMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// RunSweep executes a single archival pass and returns the number of
// records updated. A pass already in progress makes this call a no-op
// returning zero.
func (s *ArchivalService) RunSweep() (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("Archival sweep already running, skipping")
		return 0, nil
	}
	defer s.running.Store(false)

	now := s.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := today.AddDate(0, 0, -1)

	appointments, err := s.appointmentRepo.FindConfirmedPast(s.db, cutoff)
	if err != nil {
		s.log.Warnf("Failed to query past confirmed appointments: %+v", err)
		return 0, err
	}

	count := 0
	for i := range appointments {
		appointment := &appointments[i]
		appointment.Status = entity.AppointmentStatusCompleted
		appointment.IsArchived = true

		if err := s.appointmentRepo.Update(s.db, appointment); err != nil {
			// Best effort: the record may have been updated concurrently,
			// the next run picks up anything still matching.
			s.log.Warnf("Failed to archive appointment %s: %+v", appointment.ID, err)
			continue
		}
		count++
	}

	if count > 0 && s.auditService != nil {
		s.auditService.LogAction(s.db, nil, entity.AuditActionSweepRun, entity.JSON{
			"archived": count,
			"cutoff":   cutoff.Format("2006-01-02"),
		})
	}

	return count, nil
}
