package repositories

import (
	"malita-clinic/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// doctorRepository implements DoctorRepository
type doctorRepository struct {
	db *gorm.DB
}

// NewDoctorRepository creates a new doctor repository
func NewDoctorRepository(db *gorm.DB) DoctorRepository {
	return &doctorRepository{db: db}
}

// Create creates a new doctor
func (r *doctorRepository) Create(doctor *models.Doctor) error {
	if doctor.SlotsBooked == nil {
		doctor.SlotsBooked = models.SlotMap{}
	}
	return r.db.Create(doctor).Error
}

// GetByID returns a doctor by ID
func (r *doctorRepository) GetByID(id uint) (*models.Doctor, error) {
	var doctor models.Doctor
	err := r.db.First(&doctor, id).Error
	if err != nil {
		return nil, err
	}
	if doctor.SlotsBooked == nil {
		doctor.SlotsBooked = models.SlotMap{}
	}
	return &doctor, nil
}

// List returns all doctors
func (r *doctorRepository) List() ([]models.Doctor, error) {
	var doctors []models.Doctor
	err := r.db.Order("id ASC").Find(&doctors).Error
	return doctors, err
}

// Update updates selected doctor columns
func (r *doctorRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Doctor{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateSlots persists the doctor's booking ledger
func (r *doctorRepository) UpdateSlots(id uint, slots models.SlotMap) error {
	return r.db.Model(&models.Doctor{}).Where("id = ?", id).Update("slots_booked", slots).Error
}

// Delete soft-deletes a doctor
func (r *doctorRepository) Delete(id uint) error {
	return r.db.Delete(&models.Doctor{}, id).Error
}

// Count returns the total number of doctors
func (r *doctorRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Doctor{}).Count(&count).Error
	return count, err
}
