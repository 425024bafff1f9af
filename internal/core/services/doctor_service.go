package services

import (
	"errors"
	"log"
	"net/mail"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/adapters/persistence/repositories"
	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/pkg/password"

	"gorm.io/gorm"
)

// DoctorService handles doctor management (admin) and public listings
type DoctorService struct {
	doctorRepo repositories.DoctorRepository
}

// NewDoctorService creates a new doctor service
func NewDoctorService(doctorRepo repositories.DoctorRepository) *DoctorService {
	return &DoctorService{doctorRepo: doctorRepo}
}

// AddDoctorInput represents an add-doctor request. ImageKey is the
// stored-object key of the uploaded doctor image.
type AddDoctorInput struct {
	Name          string  `json:"name" validate:"required"`
	NameExtension string  `json:"name_extension"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=8"`
	Speciality    string  `json:"speciality" validate:"required"`
	Degree        string  `json:"degree" validate:"required"`
	Experience    string  `json:"experience" validate:"required"`
	About         string  `json:"about" validate:"required"`
	Fees          float64 `json:"fees" validate:"required"`
	Address       string  `json:"address" validate:"required"`
	LicenseNo     string  `json:"license_no" validate:"required"`
	ImageKey      string  `json:"-"`
}

// AddDoctor creates a new doctor with an empty slot ledger
func (s *DoctorService) AddDoctor(input *AddDoctorInput) (*models.Doctor, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" ||
		input.Speciality == "" || input.Degree == "" || input.Experience == "" ||
		input.About == "" || input.Fees <= 0 || input.Address == "" || input.LicenseNo == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, domain.ErrInvalidInput
	}
	if !password.IsStrong(input.Password) {
		return nil, domain.ErrInvalidInput
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	doctor := &models.Doctor{
		Name:          input.Name,
		NameExtension: input.NameExtension,
		Email:         input.Email,
		Password:      hashedPassword,
		Image:         input.ImageKey,
		Speciality:    input.Speciality,
		Degree:        input.Degree,
		Experience:    input.Experience,
		About:         input.About,
		Fees:          input.Fees,
		Address:       input.Address,
		LicenseNo:     input.LicenseNo,
		Available:     true,
		SlotsBooked:   models.SlotMap{},
	}

	if err := s.doctorRepo.Create(doctor); err != nil {
		return nil, err
	}

	log.Printf("✅ Doctor added: %s (%s)", doctor.Name, doctor.Speciality)
	return doctor, nil
}

// UpdateDoctorInput represents a partial doctor update; empty fields keep
// their current values.
type UpdateDoctorInput struct {
	Name          string  `json:"name"`
	NameExtension *string `json:"name_extension"`
	Email         string  `json:"email"`
	Speciality    string  `json:"speciality"`
	Degree        string  `json:"degree"`
	Experience    string  `json:"experience"`
	About         string  `json:"about"`
	Fees          float64 `json:"fees"`
	Address       string  `json:"address"`
	LicenseNo     string  `json:"license_no"`
	Password      string  `json:"password"`
	ImageKey      string  `json:"-"`
}

// UpdateDoctor updates the provided doctor fields
func (s *DoctorService) UpdateDoctor(id uint, input *UpdateDoctorInput) error {
	if _, err := s.GetDoctor(id); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.NameExtension != nil {
		updates["name_extension"] = *input.NameExtension
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return domain.ErrInvalidInput
		}
		updates["email"] = input.Email
	}
	if input.Speciality != "" {
		updates["speciality"] = input.Speciality
	}
	if input.Degree != "" {
		updates["degree"] = input.Degree
	}
	if input.Experience != "" {
		updates["experience"] = input.Experience
	}
	if input.About != "" {
		updates["about"] = input.About
	}
	if input.Fees > 0 {
		updates["fees"] = input.Fees
	}
	if input.Address != "" {
		updates["address"] = input.Address
	}
	if input.LicenseNo != "" {
		updates["license_no"] = input.LicenseNo
	}
	if input.ImageKey != "" {
		updates["image"] = input.ImageKey
	}
	if input.Password != "" {
		if !password.IsStrong(input.Password) {
			return domain.ErrInvalidInput
		}
		hashed, err := password.Hash(input.Password)
		if err != nil {
			return err
		}
		updates["password"] = hashed
	}

	if len(updates) == 0 {
		return nil
	}
	return s.doctorRepo.Update(id, updates)
}

// GetDoctor returns one doctor
func (s *DoctorService) GetDoctor(id uint) (*models.Doctor, error) {
	doctor, err := s.doctorRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, err
	}
	return doctor, nil
}

// ListDoctors returns all doctors
func (s *DoctorService) ListDoctors() ([]models.Doctor, error) {
	return s.doctorRepo.List()
}

// DeleteDoctor removes a doctor
func (s *DoctorService) DeleteDoctor(id uint) error {
	if _, err := s.GetDoctor(id); err != nil {
		return err
	}
	return s.doctorRepo.Delete(id)
}

// ChangeAvailability toggles the availability flag and returns the new value
func (s *DoctorService) ChangeAvailability(id uint) (bool, error) {
	doctor, err := s.GetDoctor(id)
	if err != nil {
		return false, err
	}

	available := !doctor.Available
	if err := s.doctorRepo.Update(id, map[string]interface{}{"available": available}); err != nil {
		return false, err
	}

	log.Printf("✅ Doctor %d availability set to %t", id, available)
	return available, nil
}
