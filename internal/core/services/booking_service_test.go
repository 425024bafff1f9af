package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/pkg/datekey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixed clock for deterministic window checks
var testNow = time.Date(2026, time.August, 10, 9, 30, 0, 0, time.Local)

func testDoctor() *models.Doctor {
	return &models.Doctor{
		ID:          1,
		Name:        "Dr. Reyes",
		Email:       "reyes@malita-clinic.test",
		Speciality:  "General Medicine",
		Degree:      "MD",
		Fees:        500,
		Address:     "Malita, Davao Occidental",
		Available:   true,
		SlotsBooked: models.SlotMap{},
	}
}

func testPatient() *models.User {
	return &models.User{
		ID:             7,
		FirstName:      "Maria",
		LastName:       "Santos",
		Email:          "maria@example.com",
		Phone:          "09171234567",
		DOB:            "1990-04-12",
		ApprovalStatus: models.ApprovalApproved,
	}
}

func newTestBookingService(doctorRepo *mockDoctorRepo, apptRepo *mockApptRepo, userRepo *mockUserRepo) *BookingService {
	svc := NewBookingService(doctorRepo, apptRepo, userRepo, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

// validSlotDate is a date safely inside the booking window
func validSlotDate() string {
	return datekey.Format(testNow.AddDate(0, 0, 10))
}

func TestBook_Success(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	userRepo := newMockUserRepo(testPatient())
	svc := newTestBookingService(doctorRepo, apptRepo, userRepo)

	slotDate := validSlotDate()
	appt, err := svc.Book(&BookInput{
		UserID:   7,
		DoctorID: 1,
		SlotDate: slotDate,
		SlotTime: "10:00 AM",
	})

	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, uint(7), appt.UserID)
	assert.Equal(t, uint(1), appt.DoctorID)
	assert.Equal(t, slotDate, appt.SlotDate)
	assert.Equal(t, "10:00 AM", appt.SlotTime)
	assert.False(t, appt.Cancelled)
	assert.False(t, appt.IsCompleted)
	assert.False(t, appt.Payment)

	// Fee and snapshots are frozen at booking time
	assert.Equal(t, 500.0, appt.Amount)
	assert.Equal(t, "Maria Santos", appt.Patient.Name)
	assert.Equal(t, "Dr. Reyes", appt.Doctor.Name)
	assert.Equal(t, 500.0, appt.Doctor.Fees)

	// Slot landed in the ledger
	assert.True(t, doctorRepo.slots(1).Has(slotDate, "10:00 AM"))
}

func TestBook_WindowBoundaries(t *testing.T) {
	today := datekey.StartOfDay(testNow)

	cases := []struct {
		name    string
		date    time.Time
		wantErr error
	}{
		{"four days ahead rejected", today.AddDate(0, 0, 4), domain.ErrOutsideBookingWindow},
		{"five days ahead accepted", today.AddDate(0, 0, 5), nil},
		{"one month ahead accepted", today.AddDate(0, 1, 0), nil},
		{"past one month rejected", today.AddDate(0, 1, 1), domain.ErrOutsideBookingWindow},
		{"today rejected", today, domain.ErrOutsideBookingWindow},
		{"past date rejected", today.AddDate(0, 0, -1), domain.ErrOutsideBookingWindow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestBookingService(newMockDoctorRepo(testDoctor()), newMockApptRepo(), newMockUserRepo(testPatient()))

			_, err := svc.Book(&BookInput{
				UserID:   7,
				DoctorID: 1,
				SlotDate: datekey.Format(tc.date),
				SlotTime: "10:00 AM",
			})

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBook_InvalidDateKey(t *testing.T) {
	svc := newTestBookingService(newMockDoctorRepo(testDoctor()), newMockApptRepo(), newMockUserRepo(testPatient()))

	for _, bad := range []string{"", "15-8-2026", "15_8", "32_8_2026", "abc_8_2026"} {
		_, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: bad, SlotTime: "10:00 AM"})
		assert.ErrorIs(t, err, domain.ErrInvalidDateKey, "date %q", bad)
	}
}

func TestBook_SlotTaken(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	svc := newTestBookingService(doctorRepo, newMockApptRepo(), newMockUserRepo(testPatient()))

	slotDate := validSlotDate()
	_, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	require.NoError(t, err)

	// Same label again is refused; a different label on the same day works
	_, err = svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	assert.ErrorIs(t, err, domain.ErrSlotTaken)

	_, err = svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:30 AM"})
	assert.NoError(t, err)
}

func TestBook_DoctorChecks(t *testing.T) {
	unavailable := testDoctor()
	unavailable.Available = false
	svc := newTestBookingService(newMockDoctorRepo(unavailable), newMockApptRepo(), newMockUserRepo(testPatient()))

	_, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: validSlotDate(), SlotTime: "10:00 AM"})
	assert.ErrorIs(t, err, domain.ErrDoctorUnavailable)

	_, err = svc.Book(&BookInput{UserID: 7, DoctorID: 99, SlotDate: validSlotDate(), SlotTime: "10:00 AM"})
	assert.ErrorIs(t, err, domain.ErrDoctorNotFound)
}

func TestBook_UserNotFound(t *testing.T) {
	svc := newTestBookingService(newMockDoctorRepo(testDoctor()), newMockApptRepo(), newMockUserRepo())

	_, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: validSlotDate(), SlotTime: "10:00 AM"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestBook_RollbackOnCreateFailure(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	apptRepo.CreateFunc = func(appt *models.Appointment) error {
		return errors.New("insert failed")
	}
	svc := newTestBookingService(doctorRepo, apptRepo, newMockUserRepo(testPatient()))

	slotDate := validSlotDate()
	_, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	require.Error(t, err)

	// Reservation was compensated: the ledger holds no orphan slot
	assert.False(t, doctorRepo.slots(1).Has(slotDate, "10:00 AM"))
}

func TestBook_ConcurrentSameSlot(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	userRepo := newMockUserRepo(testPatient())
	svc := newTestBookingService(doctorRepo, apptRepo, userRepo)

	slotDate := validSlotDate()
	const workers = 16

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes, "exactly one booking must win the slot")
	assert.Equal(t, workers-1, conflicts)

	count, _ := apptRepo.Count()
	assert.Equal(t, int64(1), count)
}

func TestCancel_ByPatient(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	svc := newTestBookingService(doctorRepo, apptRepo, newMockUserRepo(testPatient()))

	slotDate := validSlotDate()
	appt, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	require.NoError(t, err)

	cancelled, changed, err := svc.Cancel(appt.ID, models.CancelledByPatient, 7, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, cancelled.Cancelled)
	assert.Equal(t, models.CancelledByPatient, cancelled.CancelledBy)
	assert.Equal(t, models.ReasonCancelledByPatient, cancelled.CancellationReason)

	// Slot freed, so the same label can be booked again
	assert.False(t, doctorRepo.slots(1).Has(slotDate, "10:00 AM"))
	_, err = svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	assert.NoError(t, err)
}

func TestCancel_OwnershipEnforced(t *testing.T) {
	svc := newTestBookingService(newMockDoctorRepo(testDoctor()), newMockApptRepo(), newMockUserRepo(testPatient()))

	appt, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: validSlotDate(), SlotTime: "10:00 AM"})
	require.NoError(t, err)

	_, _, err = svc.Cancel(appt.ID, models.CancelledByPatient, 999, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Admin cancels regardless of ownership
	_, changed, err := svc.Cancel(appt.ID, models.CancelledByAdmin, 0, "clinic closed")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestCancel_Idempotent(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	svc := newTestBookingService(doctorRepo, newMockApptRepo(), newMockUserRepo(testPatient()))

	slotDate := validSlotDate()
	appt, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	require.NoError(t, err)

	_, changed, err := svc.Cancel(appt.ID, models.CancelledByPatient, 7, "")
	require.NoError(t, err)
	assert.True(t, changed)

	// Rebook the freed slot, then cancel the old appointment again:
	// the second cancel must not disturb the new reservation.
	_, err = svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	require.NoError(t, err)

	second, changed, err := svc.Cancel(appt.ID, models.CancelledByPatient, 7, "")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, second.Cancelled)
	assert.True(t, doctorRepo.slots(1).Has(slotDate, "10:00 AM"))
}

func TestCancel_CustomAndDefaultReasons(t *testing.T) {
	svc := newTestBookingService(newMockDoctorRepo(testDoctor()), newMockApptRepo(), newMockUserRepo(testPatient()))

	a1, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: validSlotDate(), SlotTime: "09:00 AM"})
	require.NoError(t, err)
	a2, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: validSlotDate(), SlotTime: "09:30 AM"})
	require.NoError(t, err)
	a3, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: validSlotDate(), SlotTime: "10:00 AM"})
	require.NoError(t, err)

	c1, _, err := svc.Cancel(a1.ID, models.CancelledByPatient, 7, "feeling better")
	require.NoError(t, err)
	assert.Equal(t, "feeling better", c1.CancellationReason)

	c2, _, err := svc.Cancel(a2.ID, models.CancelledByAdmin, 0, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReasonCancelledByAdmin, c2.CancellationReason)

	c3, _, err := svc.Cancel(a3.ID, models.CancelledBySystem, 0, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReasonAutoCancelled, c3.CancellationReason)
	assert.Equal(t, models.CancelledBySystem, c3.CancelledBy)
}

func TestApprove(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	svc := newTestBookingService(doctorRepo, newMockApptRepo(), newMockUserRepo(testPatient()))

	slotDate := validSlotDate()
	appt, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	require.NoError(t, err)

	approved, changed, err := svc.Approve(appt.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, approved.IsCompleted)

	// Approval does not release the slot
	assert.True(t, doctorRepo.slots(1).Has(slotDate, "10:00 AM"))

	// Idempotent
	_, changed, err = svc.Approve(appt.ID)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestApprove_CancelledRejected(t *testing.T) {
	svc := newTestBookingService(newMockDoctorRepo(testDoctor()), newMockApptRepo(), newMockUserRepo(testPatient()))

	appt, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: validSlotDate(), SlotTime: "10:00 AM"})
	require.NoError(t, err)

	_, _, err = svc.Cancel(appt.ID, models.CancelledByPatient, 7, "")
	require.NoError(t, err)

	_, _, err = svc.Approve(appt.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidAppointmentState)
}

func TestCancel_ApprovedClearsCompletion(t *testing.T) {
	apptRepo := newMockApptRepo()
	svc := newTestBookingService(newMockDoctorRepo(testDoctor()), apptRepo, newMockUserRepo(testPatient()))

	appt, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: validSlotDate(), SlotTime: "10:00 AM"})
	require.NoError(t, err)

	_, _, err = svc.Approve(appt.ID)
	require.NoError(t, err)

	cancelled, changed, err := svc.Cancel(appt.ID, models.CancelledByAdmin, 0, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, cancelled.Cancelled)
	assert.False(t, cancelled.IsCompleted, "an appointment can not be both cancelled and completed")
}

func TestMarkRead(t *testing.T) {
	apptRepo := newMockApptRepo()
	svc := newTestBookingService(newMockDoctorRepo(testDoctor()), apptRepo, newMockUserRepo(testPatient()))

	appt, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: validSlotDate(), SlotTime: "10:00 AM"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkRead(appt.ID, 999), domain.ErrUnauthorized)
	assert.ErrorIs(t, svc.MarkRead(12345, 7), domain.ErrAppointmentNotFound)

	require.NoError(t, svc.MarkRead(appt.ID, 7))
	assert.True(t, apptRepo.get(appt.ID).IsRead)
}

func TestCancel_NotFound(t *testing.T) {
	svc := newTestBookingService(newMockDoctorRepo(testDoctor()), newMockApptRepo(), newMockUserRepo(testPatient()))

	_, _, err := svc.Cancel(42, models.CancelledByAdmin, 0, "")
	assert.ErrorIs(t, err, domain.ErrAppointmentNotFound)
}

func TestCancel_ConcurrentDuplicateKeepsRebookedSlot(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	userRepo := newMockUserRepo(testPatient())
	svc := newTestBookingService(doctorRepo, apptRepo, userRepo)

	slotDate := validSlotDate()
	first, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	require.NoError(t, err)

	// Park the admin cancel right after its first appointment read so it
	// carries a stale not-yet-cancelled snapshot while the world moves on.
	parked := make(chan struct{})
	resume := make(chan struct{})
	seen := false
	apptRepo.GetByIDFunc = func(id uint) {
		if !seen {
			seen = true
			close(parked)
			<-resume
		}
	}

	adminDone := make(chan struct{})
	var adminChanged bool
	var adminErr error
	go func() {
		defer close(adminDone)
		_, adminChanged, adminErr = svc.Cancel(first.ID, models.CancelledByAdmin, 0, "")
	}()
	<-parked

	// While the admin cancel is stalled, the patient cancels and the freed
	// slot is booked again.
	_, changed, err := svc.Cancel(first.ID, models.CancelledByPatient, 7, "")
	require.NoError(t, err)
	require.True(t, changed)

	second, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"})
	require.NoError(t, err)

	close(resume)
	<-adminDone

	// The stale cancel must notice the finished patient cancel and leave
	// the new reservation alone; a second release here would erase it.
	assert.NoError(t, adminErr)
	assert.False(t, adminChanged)
	assert.False(t, apptRepo.get(second.ID).Cancelled)
	assert.True(t, doctorRepo.slots(1).Has(slotDate, "10:00 AM"),
		"rebooked slot must survive the duplicate cancel")
}

// stallingNotifier blocks every delivery until released
type stallingNotifier struct {
	started chan struct{}
	release chan struct{}
}

func (n *stallingNotifier) NotifyDoctorNewAppointment(_ *models.Appointment) bool {
	n.started <- struct{}{}
	<-n.release
	return true
}

func TestBook_StalledNotificationDoesNotBlockLedger(t *testing.T) {
	doctorRepo := newMockDoctorRepo(testDoctor())
	apptRepo := newMockApptRepo()
	userRepo := newMockUserRepo(testPatient())

	notifier := &stallingNotifier{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	svc := NewBookingService(doctorRepo, apptRepo, userRepo, notifier)
	svc.now = func() time.Time { return testNow }

	slotDate := validSlotDate()

	done := make(chan error, 1)
	go func() {
		if _, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "10:00 AM"}); err != nil {
			done <- err
			return
		}
		<-notifier.started // first delivery is in flight and stalled
		_, err := svc.Book(&BookInput{UserID: 7, DoctorID: 1, SlotDate: slotDate, SlotTime: "11:00 AM"})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second booking blocked behind a stalled notification")
	}
	close(notifier.release)

	assert.True(t, doctorRepo.slots(1).Has(slotDate, "10:00 AM"))
	assert.True(t, doctorRepo.slots(1).Has(slotDate, "11:00 AM"))
}
