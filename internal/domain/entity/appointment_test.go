package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newAppointment(status AppointmentStatus, date time.Time, startTime string) *Appointment {
	return &Appointment{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Date:      date,
		StartTime: startTime,
		Status:    status,
	}
}

func TestAppointmentStatusIsTerminal(t *testing.T) {
	require.False(t, AppointmentStatusPending.IsTerminal())
	require.False(t, AppointmentStatusConfirmed.IsTerminal())
	require.True(t, AppointmentStatusCancelled.IsTerminal())
	require.True(t, AppointmentStatusCompleted.IsTerminal())
	require.True(t, AppointmentStatusNoShow.IsTerminal())
}

func TestAppointmentStatusIsValid(t *testing.T) {
	require.True(t, AppointmentStatus("no-show").IsValid())
	require.False(t, AppointmentStatus("rescheduled").IsValid())
	require.False(t, AppointmentStatus("").IsValid())
}

func TestTransitionPending(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	future := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	a := newAppointment(AppointmentStatusPending, future, "09:00")
	require.NoError(t, a.Transition(AppointmentStatusConfirmed, DoctorActor(a.DoctorID), now))
	require.Equal(t, AppointmentStatusConfirmed, a.Status)
	require.False(t, a.IsArchived)

	a = newAppointment(AppointmentStatusPending, future, "09:00")
	require.NoError(t, a.Transition(AppointmentStatusCancelled, PatientActor(a.PatientID), now))
	require.Equal(t, AppointmentStatusCancelled, a.Status)

	// pending cannot jump straight to completed or no-show
	a = newAppointment(AppointmentStatusPending, future, "09:00")
	err := a.Transition(AppointmentStatusCompleted, DoctorActor(a.DoctorID), now)
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	require.Equal(t, AppointmentStatusPending, transitionErr.From)
	require.Equal(t, AppointmentStatusCompleted, transitionErr.To)
	require.Equal(t, AppointmentStatusPending, a.Status)
}

func TestTransitionConfirmedCancellation(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	past := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	// patient can cancel before the appointment starts
	a := newAppointment(AppointmentStatusConfirmed, future, "09:00")
	require.NoError(t, a.Transition(AppointmentStatusCancelled, PatientActor(a.PatientID), now))
	require.Equal(t, AppointmentStatusCancelled, a.Status)

	// but not after it has passed
	a = newAppointment(AppointmentStatusConfirmed, past, "09:00")
	err := a.Transition(AppointmentStatusCancelled, PatientActor(a.PatientID), now)
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	// a doctor can cancel even after the start time
	a = newAppointment(AppointmentStatusConfirmed, past, "09:00")
	require.NoError(t, a.Transition(AppointmentStatusCancelled, DoctorActor(a.DoctorID), now))
	require.Equal(t, AppointmentStatusCancelled, a.Status)
	require.True(t, a.IsArchived)
}

func TestTransitionConfirmedCompletion(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	past := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	// completing a future appointment is rejected
	a := newAppointment(AppointmentStatusConfirmed, future, "09:00")
	err := a.Transition(AppointmentStatusCompleted, DoctorActor(a.DoctorID), now)
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)

	// once the start time has passed it succeeds and archives
	a = newAppointment(AppointmentStatusConfirmed, past, "09:00")
	require.NoError(t, a.Transition(AppointmentStatusCompleted, DoctorActor(a.DoctorID), now))
	require.Equal(t, AppointmentStatusCompleted, a.Status)
	require.True(t, a.IsArchived)

	a = newAppointment(AppointmentStatusConfirmed, past, "09:00")
	require.NoError(t, a.Transition(AppointmentStatusNoShow, DoctorActor(a.DoctorID), now))
	require.Equal(t, AppointmentStatusNoShow, a.Status)
	require.True(t, a.IsArchived)
}

func TestTransitionSameDayUsesStartTime(t *testing.T) {
	// 10:00 on the appointment day: the 09:00 slot has passed,
	// the 11:00 slot has not.
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	a := newAppointment(AppointmentStatusConfirmed, today, "09:00")
	require.NoError(t, a.Transition(AppointmentStatusCompleted, DoctorActor(a.DoctorID), now))

	a = newAppointment(AppointmentStatusConfirmed, today, "11:00")
	err := a.Transition(AppointmentStatusCompleted, DoctorActor(a.DoctorID), now)
	var transitionErr *InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestTransitionTerminalStatesAreFrozen(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	past := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, from := range []AppointmentStatus{
		AppointmentStatusCancelled,
		AppointmentStatusCompleted,
		AppointmentStatusNoShow,
	} {
		for _, to := range []AppointmentStatus{
			AppointmentStatusPending,
			AppointmentStatusConfirmed,
			AppointmentStatusCancelled,
			AppointmentStatusCompleted,
			AppointmentStatusNoShow,
		} {
			a := newAppointment(from, past, "09:00")
			err := a.Transition(to, DoctorActor(a.DoctorID), now)
			var transitionErr *InvalidTransitionError
			require.True(t, errors.As(err, &transitionErr), "expected %s -> %s to fail", from, to)
		}
	}
}

func TestHasPassed(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)

	a := newAppointment(AppointmentStatusConfirmed, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), "10:00")
	require.True(t, a.HasPassed(now))

	a.StartTime = "10:30"
	require.False(t, a.HasPassed(now))

	a.StartTime = "11:00"
	require.False(t, a.HasPassed(now))
}
