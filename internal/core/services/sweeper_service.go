package services

import (
	"log"
	"time"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/adapters/persistence/repositories"
	"malita-clinic/internal/pkg/datekey"

	"github.com/robfig/cron/v3"
)

// SweeperService expires past-dated appointments that are still open and
// releases their slots. It runs synchronously before admin appointment
// listings and on a nightly cron schedule; re-running with the same asOf
// transitions nothing further.
type SweeperService struct {
	apptRepo repositories.AppointmentRepository
	booking  *BookingService
	cron     *cron.Cron
}

// NewSweeperService creates a new sweeper service
func NewSweeperService(apptRepo repositories.AppointmentRepository, booking *BookingService) *SweeperService {
	return &SweeperService{
		apptRepo: apptRepo,
		booking:  booking,
	}
}

// Sweep cancels every open appointment whose date is strictly before
// asOf's date, day granularity, acting as the system. Returns the number
// of appointments transitioned.
func (s *SweeperService) Sweep(asOf time.Time) (int, error) {
	cutoff := datekey.StartOfDay(asOf)

	open, err := s.apptRepo.ListOpen()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, appt := range open {
		apptDate, err := datekey.Parse(appt.SlotDate)
		if err != nil {
			log.Printf("⚠️ Sweep: appointment %d has unparseable slot date %q", appt.ID, appt.SlotDate)
			continue
		}
		if !apptDate.Before(cutoff) {
			continue
		}

		_, changed, err := s.booking.Cancel(appt.ID, models.CancelledBySystem, 0, "")
		if err != nil {
			log.Printf("❌ Sweep: failed to cancel appointment %d: %v", appt.ID, err)
			continue
		}
		if changed {
			count++
		}
	}

	if count > 0 {
		log.Printf("🗑️ Auto-cancelled %d past appointments", count)
	}
	return count, nil
}

// Start schedules the nightly sweep (00:15 local time)
func (s *SweeperService) Start() {
	s.cron = cron.New()
	s.cron.AddFunc("15 0 * * *", func() {
		if _, err := s.Sweep(time.Now()); err != nil {
			log.Printf("❌ Scheduled sweep failed: %v", err)
		}
	})
	s.cron.Start()
	log.Println("🚀 Expiry sweeper scheduled")
}

// Stop halts the scheduled sweep
func (s *SweeperService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	log.Println("🛑 Expiry sweeper stopped")
}
