package services

import (
	"testing"
	"time"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/pkg/datekey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_ExpiresPastOpenAppointments(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	userRepo := newMockUserRepo(testPatient())
	booking := newTestBookingService(doctorRepo, apptRepo, userRepo)
	sweeper := NewSweeperService(apptRepo, booking)

	yesterday := datekey.Format(testNow.AddDate(0, 0, -1))
	today := datekey.Format(testNow)
	future := validSlotDate()

	// Seed the ledger and appointments directly: the past dates could not
	// go through Book, which enforces the booking window.
	doctor, err := doctorRepo.GetByID(1)
	require.NoError(t, err)
	doctor.SlotsBooked.Add(yesterday, "10:00 AM")
	doctor.SlotsBooked.Add(today, "10:00 AM")
	doctor.SlotsBooked.Add(future, "10:00 AM")
	require.NoError(t, doctorRepo.UpdateSlots(1, doctor.SlotsBooked))

	past := &models.Appointment{UserID: 7, DoctorID: 1, SlotDate: yesterday, SlotTime: "10:00 AM"}
	dueToday := &models.Appointment{UserID: 7, DoctorID: 1, SlotDate: today, SlotTime: "10:00 AM"}
	upcoming := &models.Appointment{UserID: 7, DoctorID: 1, SlotDate: future, SlotTime: "10:00 AM"}
	require.NoError(t, apptRepo.Create(past))
	require.NoError(t, apptRepo.Create(dueToday))
	require.NoError(t, apptRepo.Create(upcoming))

	count, err := sweeper.Sweep(testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Only the strictly-past appointment expired
	swept := apptRepo.get(past.ID)
	assert.True(t, swept.Cancelled)
	assert.Equal(t, models.CancelledBySystem, swept.CancelledBy)
	assert.Equal(t, models.ReasonAutoCancelled, swept.CancellationReason)

	assert.False(t, apptRepo.get(dueToday.ID).Cancelled, "same-day appointments stay open")
	assert.False(t, apptRepo.get(upcoming.ID).Cancelled)

	// Its slot was released, the others remain held
	assert.False(t, doctorRepo.slots(1).Has(yesterday, "10:00 AM"))
	assert.True(t, doctorRepo.slots(1).Has(today, "10:00 AM"))
	assert.True(t, doctorRepo.slots(1).Has(future, "10:00 AM"))
}

func TestSweep_Idempotent(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	booking := newTestBookingService(doctorRepo, apptRepo, newMockUserRepo(testPatient()))
	sweeper := NewSweeperService(apptRepo, booking)

	yesterday := datekey.Format(testNow.AddDate(0, 0, -1))
	require.NoError(t, apptRepo.Create(&models.Appointment{
		UserID: 7, DoctorID: 1, SlotDate: yesterday, SlotTime: "10:00 AM",
	}))

	count, err := sweeper.Sweep(testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = sweeper.Sweep(testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "second sweep transitions nothing")
}

func TestSweep_SkipsCancelledAndCompleted(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	booking := newTestBookingService(doctorRepo, apptRepo, newMockUserRepo(testPatient()))
	sweeper := NewSweeperService(apptRepo, booking)

	yesterday := datekey.Format(testNow.AddDate(0, 0, -1))
	cancelled := &models.Appointment{
		UserID: 7, DoctorID: 1, SlotDate: yesterday, SlotTime: "09:00 AM",
		Cancelled: true, CancelledBy: models.CancelledByPatient,
	}
	completed := &models.Appointment{
		UserID: 7, DoctorID: 1, SlotDate: yesterday, SlotTime: "10:00 AM",
		IsCompleted: true,
	}
	require.NoError(t, apptRepo.Create(cancelled))
	require.NoError(t, apptRepo.Create(completed))

	count, err := sweeper.Sweep(testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.True(t, apptRepo.get(completed.ID).IsCompleted)
	assert.False(t, apptRepo.get(completed.ID).Cancelled, "approved appointments never expire")
}

func TestSweep_SkipsUnparseableDates(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	booking := newTestBookingService(doctorRepo, apptRepo, newMockUserRepo(testPatient()))
	sweeper := NewSweeperService(apptRepo, booking)

	require.NoError(t, apptRepo.Create(&models.Appointment{
		UserID: 7, DoctorID: 1, SlotDate: "garbage", SlotTime: "10:00 AM",
	}))
	require.NoError(t, apptRepo.Create(&models.Appointment{
		UserID: 7, DoctorID: 1, SlotDate: datekey.Format(testNow.AddDate(0, 0, -2)), SlotTime: "11:00 AM",
	}))

	count, err := sweeper.Sweep(testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "bad rows are skipped, good rows still sweep")
}

func TestSweep_CutoffIsDayGranular(t *testing.T) {
	apptRepo := newMockApptRepo()
	booking := newTestBookingService(newMockDoctorRepo(testDoctor()), apptRepo, newMockUserRepo(testPatient()))
	sweeper := NewSweeperService(apptRepo, booking)

	today := datekey.Format(testNow)
	require.NoError(t, apptRepo.Create(&models.Appointment{
		UserID: 7, DoctorID: 1, SlotDate: today, SlotTime: "06:00 AM",
	}))

	// Late in the evening of the same day the appointment is still not past
	lateEvening := time.Date(2026, time.August, 10, 23, 59, 0, 0, time.Local)
	count, err := sweeper.Sweep(lateEvening)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The next morning it is
	nextMorning := time.Date(2026, time.August, 11, 0, 30, 0, 0, time.Local)
	count, err = sweeper.Sweep(nextMorning)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
