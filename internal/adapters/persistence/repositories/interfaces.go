package repositories

import (
	"context"

	"malita-clinic/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]models.User, error)
	ListByApprovalStatus(ctx context.Context, status string) ([]models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) error
}

// DoctorRepository defines doctor repository interface.
// UpdateSlots persists the whole ledger map; callers serialize access
// per doctor (see BookingService) so the save never races itself.
type DoctorRepository interface {
	Create(doctor *models.Doctor) error
	GetByID(id uint) (*models.Doctor, error)
	List() ([]models.Doctor, error)
	Update(id uint, updates map[string]interface{}) error
	UpdateSlots(id uint, slots models.SlotMap) error
	Delete(id uint) error
	Count() (int64, error)
}

// AppointmentRepository defines appointment repository interface
type AppointmentRepository interface {
	Create(appt *models.Appointment) error
	GetByID(id uint) (*models.Appointment, error)
	ListByUser(userID uint) ([]models.Appointment, error)
	ListAll() ([]models.Appointment, error)
	ListLatest(limit int) ([]models.Appointment, error)
	ListOpen() ([]models.Appointment, error)
	Update(id uint, updates map[string]interface{}) error
	Count() (int64, error)
}
