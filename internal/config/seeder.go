package config

import (
	"log"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders (development only)
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedDoctors(); err != nil {
		log.Printf("⚠️ Doctor seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedDoctors seeds a couple of sample doctors so the booking flow can be
// exercised against a fresh database. Production doctors are created by
// the admin through the API.
func (s *Seeder) seedDoctors() error {
	var count int64
	s.db.Model(&models.Doctor{}).Count(&count)
	if count > 0 {
		return nil // Doctors already present
	}

	hashedPassword, err := password.Hash("changeme123")
	if err != nil {
		return err
	}

	doctors := []models.Doctor{
		{
			Name:        "Maria Santos",
			Email:       "maria.santos@malitadoc.com",
			Password:    hashedPassword,
			Speciality:  "General Physician",
			Degree:      "MD",
			Experience:  "8 Years",
			About:       "General consultations and preventive care.",
			Fees:        500,
			Address:     "Malita Clinic, Davao Occidental",
			LicenseNo:   "PRC-0101010",
			Available:   true,
			SlotsBooked: models.SlotMap{},
		},
		{
			Name:        "Jose Ramirez",
			Email:       "jose.ramirez@malitadoc.com",
			Password:    hashedPassword,
			Speciality:  "Pediatrician",
			Degree:      "MD, DPPS",
			Experience:  "12 Years",
			About:       "Child health and immunization.",
			Fees:        650,
			Address:     "Malita Clinic, Davao Occidental",
			LicenseNo:   "PRC-0202020",
			Available:   true,
			SlotsBooked: models.SlotMap{},
		},
	}

	for i := range doctors {
		if err := s.db.Create(&doctors[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("🌱 Seeded %d sample doctors", len(doctors))
	return nil
}
