package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/adapters/persistence/repositories"
	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/pkg/datekey"

	"gorm.io/gorm"
)

// Booking window bounds, both inclusive at day granularity
const (
	MinAdvanceDays   = 5
	MaxAdvanceMonths = 1
)

// AppointmentNotifier delivers booking notifications. Delivery is
// fire-and-forget: the booking flow never waits on it and never fails
// because of it.
type AppointmentNotifier interface {
	NotifyDoctorNewAppointment(appt *models.Appointment) bool
}

// BookingService is the slot allocation policy and appointment lifecycle
// engine. All mutations of a doctor's slot ledger go through a per-doctor
// mutex so concurrent book/cancel calls against the same doctor can never
// lose an update.
type BookingService struct {
	doctorRepo repositories.DoctorRepository
	apptRepo   repositories.AppointmentRepository
	userRepo   repositories.UserRepository
	notify     AppointmentNotifier

	mu    sync.Mutex
	locks map[uint]*sync.Mutex

	now func() time.Time
}

// NewBookingService creates a new booking service
func NewBookingService(
	doctorRepo repositories.DoctorRepository,
	apptRepo repositories.AppointmentRepository,
	userRepo repositories.UserRepository,
	notify AppointmentNotifier,
) *BookingService {
	return &BookingService{
		doctorRepo: doctorRepo,
		apptRepo:   apptRepo,
		userRepo:   userRepo,
		notify:     notify,
		locks:      make(map[uint]*sync.Mutex),
		now:        time.Now,
	}
}

// slotLock returns the mutex guarding one doctor's ledger
func (s *BookingService) slotLock(doctorID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[doctorID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[doctorID] = lock
	}
	return lock
}

// checkBookingWindow validates the appointment date against the booking
// window [today+5 days, today+1 month], inclusive at both ends, comparing
// at day granularity.
func checkBookingWindow(apptDate, requestedOn time.Time) error {
	today := datekey.StartOfDay(requestedOn)
	minDate := today.AddDate(0, 0, MinAdvanceDays)
	maxDate := today.AddDate(0, MaxAdvanceMonths, 0)

	if apptDate.Before(minDate) || apptDate.After(maxDate) {
		return domain.ErrOutsideBookingWindow
	}
	return nil
}

// BookInput represents a booking request
type BookInput struct {
	UserID   uint   `json:"user_id"`
	DoctorID uint   `json:"doctor_id" validate:"required"`
	SlotDate string `json:"slot_date" validate:"required"`
	SlotTime string `json:"slot_time" validate:"required"`
}

// Book validates the booking policy and, on success, atomically reserves
// the slot and creates an ACTIVE appointment carrying patient and doctor
// snapshots. Rejections leave no side effects; a reservation whose record
// creation fails is compensated by releasing the slot again.
func (s *BookingService) Book(input *BookInput) (*models.Appointment, error) {
	if input.SlotTime == "" {
		return nil, domain.ErrInvalidInput
	}

	apptDate, err := datekey.Parse(input.SlotDate)
	if err != nil {
		return nil, domain.ErrInvalidDateKey
	}

	if err := checkBookingWindow(apptDate, s.now()); err != nil {
		return nil, err
	}

	doctor, err := s.doctorRepo.GetByID(input.DoctorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, err
	}
	if !doctor.Available {
		return nil, domain.ErrDoctorUnavailable
	}
	if doctor.SlotsBooked.Has(input.SlotDate, input.SlotTime) {
		return nil, domain.ErrSlotTaken
	}

	user, err := s.userRepo.GetByID(context.Background(), input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	lock := s.slotLock(input.DoctorID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read inside the lock: another booking may have won the slot
	// between the policy check and here.
	doctor, err = s.doctorRepo.GetByID(input.DoctorID)
	if err != nil {
		return nil, err
	}
	if !doctor.Available {
		return nil, domain.ErrDoctorUnavailable
	}
	if doctor.SlotsBooked.Has(input.SlotDate, input.SlotTime) {
		return nil, domain.ErrSlotTaken
	}

	doctor.SlotsBooked.Add(input.SlotDate, input.SlotTime)
	if err := s.doctorRepo.UpdateSlots(doctor.ID, doctor.SlotsBooked); err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		UserID:   user.ID,
		DoctorID: doctor.ID,
		SlotDate: input.SlotDate,
		SlotTime: input.SlotTime,
		Patient: models.PatientSnapshot{
			Name:  user.FullName(),
			Email: user.Email,
			Phone: user.Phone,
			DOB:   user.DOB,
		},
		Doctor: models.DoctorSnapshot{
			Name:       doctor.Name,
			Email:      doctor.Email,
			Speciality: doctor.Speciality,
			Degree:     doctor.Degree,
			Image:      doctor.Image,
			Address:    doctor.Address,
			Fees:       doctor.Fees,
		},
		Amount:   doctor.Fees,
		BookedAt: s.now(),
	}

	if err := s.apptRepo.Create(appt); err != nil {
		// Roll the reservation back so the ledger never holds a slot
		// without a matching appointment record.
		doctor.SlotsBooked.Remove(input.SlotDate, input.SlotTime)
		if rbErr := s.doctorRepo.UpdateSlots(doctor.ID, doctor.SlotsBooked); rbErr != nil {
			log.Printf("❌ Slot rollback failed for doctor %d %s/%s: %v",
				doctor.ID, input.SlotDate, input.SlotTime, rbErr)
		}
		return nil, err
	}

	log.Printf("✅ Appointment %d booked: doctor %d, %s %s", appt.ID, doctor.ID, appt.SlotDate, appt.SlotTime)

	// Fire-and-forget: a slow SMTP server must never hold the doctor's
	// ledger lock or delay the caller's response.
	if s.notify != nil {
		go s.notify.NotifyDoctorNewAppointment(appt)
	}

	return appt, nil
}

// Cancel transitions an appointment to CANCELLED and releases its slot.
// Cancelling an already-cancelled appointment is an idempotent no-op:
// changed is false and no ledger mutation happens. When the actor is the
// patient, actorUserID must own the appointment.
func (s *BookingService) Cancel(appointmentID uint, actor string, actorUserID uint, reason string) (*models.Appointment, bool, error) {
	appt, err := s.apptRepo.GetByID(appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, domain.ErrAppointmentNotFound
		}
		return nil, false, err
	}

	if actor == models.CancelledByPatient && appt.UserID != actorUserID {
		return nil, false, domain.ErrUnauthorized
	}

	if appt.Cancelled {
		return appt, false, nil
	}

	if reason == "" {
		switch actor {
		case models.CancelledByAdmin:
			reason = models.ReasonCancelledByAdmin
		case models.CancelledBySystem:
			reason = models.ReasonAutoCancelled
		default:
			reason = models.ReasonCancelledByPatient
		}
	}

	// The cancelled check, the record update and the slot release all run
	// under the doctor's ledger lock. Without it two concurrent cancels of
	// the same appointment both release the slot, and a stale second
	// release can erase a reservation made in between.
	lock := s.slotLock(appt.DoctorID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read inside the lock: a concurrent cancel may have won.
	appt, err = s.apptRepo.GetByID(appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, domain.ErrAppointmentNotFound
		}
		return nil, false, err
	}
	if appt.Cancelled {
		return appt, false, nil
	}

	updates := map[string]interface{}{
		"cancelled":           true,
		"cancelled_by":        actor,
		"cancellation_reason": reason,
		"is_completed":        false,
	}
	if err := s.apptRepo.Update(appt.ID, updates); err != nil {
		return nil, false, err
	}
	appt.Cancelled = true
	appt.CancelledBy = actor
	appt.CancellationReason = reason
	appt.IsCompleted = false

	s.releaseSlotLocked(appt.DoctorID, appt.SlotDate, appt.SlotTime)

	log.Printf("✅ Appointment %d cancelled by %s", appt.ID, actor)
	return appt, true, nil
}

// releaseSlotLocked removes one time label from a doctor's ledger. The
// caller must hold the doctor's slot lock. The release is tolerant: a
// missing doctor or an already-absent entry is a no-op.
func (s *BookingService) releaseSlotLocked(doctorID uint, slotDate, slotTime string) {
	doctor, err := s.doctorRepo.GetByID(doctorID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("❌ Slot release read failed for doctor %d: %v", doctorID, err)
		}
		return
	}
	if !doctor.SlotsBooked.Has(slotDate, slotTime) {
		return
	}

	doctor.SlotsBooked.Remove(slotDate, slotTime)
	if err := s.doctorRepo.UpdateSlots(doctorID, doctor.SlotsBooked); err != nil {
		log.Printf("❌ Slot release write failed for doctor %d %s/%s: %v", doctorID, slotDate, slotTime, err)
	}
}

// Approve transitions an ACTIVE appointment to APPROVED. The slot stays
// consumed: approval never releases the ledger entry. Approving an already
// approved appointment is a no-op.
func (s *BookingService) Approve(appointmentID uint) (*models.Appointment, bool, error) {
	appt, err := s.apptRepo.GetByID(appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, domain.ErrAppointmentNotFound
		}
		return nil, false, err
	}

	if appt.Cancelled {
		return nil, false, domain.ErrInvalidAppointmentState
	}
	if appt.IsCompleted {
		return appt, false, nil
	}

	if err := s.apptRepo.Update(appt.ID, map[string]interface{}{"is_completed": true}); err != nil {
		return nil, false, err
	}
	appt.IsCompleted = true

	log.Printf("✅ Appointment %d approved", appt.ID)
	return appt, true, nil
}

// MarkRead flips the orthogonal is_read flag; only the owning patient may do so
func (s *BookingService) MarkRead(appointmentID, userID uint) error {
	appt, err := s.apptRepo.GetByID(appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrAppointmentNotFound
		}
		return err
	}
	if appt.UserID != userID {
		return domain.ErrUnauthorized
	}
	return s.apptRepo.Update(appt.ID, map[string]interface{}{"is_read": true})
}

// ListUserAppointments returns all appointments for a patient
func (s *BookingService) ListUserAppointments(userID uint) ([]models.Appointment, error) {
	return s.apptRepo.ListByUser(userID)
}

// ListAllAppointments returns every appointment for the admin panel
func (s *BookingService) ListAllAppointments() ([]models.Appointment, error) {
	return s.apptRepo.ListAll()
}

// GetAppointment returns one appointment by ID
func (s *BookingService) GetAppointment(id uint) (*models.Appointment, error) {
	appt, err := s.apptRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	return appt, nil
}
