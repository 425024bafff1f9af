package repositories

import (
	"malita-clinic/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// appointmentRepository implements AppointmentRepository
type appointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

// Create creates a new appointment
func (r *appointmentRepository) Create(appt *models.Appointment) error {
	return r.db.Create(appt).Error
}

// GetByID returns an appointment by ID
func (r *appointmentRepository) GetByID(id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.First(&appt, id).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// ListByUser returns all appointments for a patient, newest first
func (r *appointmentRepository) ListByUser(userID uint) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.Where("user_id = ?", userID).Order("booked_at DESC").Find(&appts).Error
	return appts, err
}

// ListAll returns every appointment, newest first
func (r *appointmentRepository) ListAll() ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.Order("booked_at DESC").Find(&appts).Error
	return appts, err
}

// ListLatest returns the most recently booked appointments, newest first
func (r *appointmentRepository) ListLatest(limit int) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.Order("booked_at DESC").Limit(limit).Find(&appts).Error
	return appts, err
}

// ListOpen returns appointments that are neither cancelled nor approved
func (r *appointmentRepository) ListOpen() ([]models.Appointment, error) {
	var appts []models.Appointment
	err := r.db.Where("cancelled = ? AND is_completed = ?", false, false).Find(&appts).Error
	return appts, err
}

// Update updates selected appointment columns
func (r *appointmentRepository) Update(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Appointment{}).Where("id = ?", id).Updates(updates).Error
}

// Count returns the total number of appointments
func (r *appointmentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Appointment{}).Count(&count).Error
	return count, err
}
