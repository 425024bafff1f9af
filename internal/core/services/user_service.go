package services

import (
	"context"
	"errors"
	"log"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/adapters/persistence/repositories"
	"malita-clinic/internal/core/domain"

	"gorm.io/gorm"
)

// UserService handles patient profiles and admin user management
type UserService struct {
	userRepo repositories.UserRepository
	notify   *NotificationService
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, notify *NotificationService) *UserService {
	return &UserService{
		userRepo: userRepo,
		notify:   notify,
	}
}

// GetProfile returns a patient's own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateProfileInput represents a profile update. ImageKey, when set, is the
// stored-object key of a freshly uploaded profile image.
type UpdateProfileInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address"`
	DOB       string `json:"dob" validate:"required"`
	Gender    string `json:"gender" validate:"required"`
	ImageKey  string `json:"-"`
}

// UpdateProfile updates a patient's own profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) error {
	if input.FirstName == "" || input.LastName == "" || input.Phone == "" ||
		input.DOB == "" || input.Gender == "" {
		return domain.ErrInvalidInput
	}

	updates := map[string]interface{}{
		"first_name": input.FirstName,
		"last_name":  input.LastName,
		"phone":      input.Phone,
		"address":    input.Address,
		"dob":        input.DOB,
		"gender":     input.Gender,
	}
	if input.ImageKey != "" {
		updates["image"] = input.ImageKey
	}

	return s.userRepo.UpdateFields(ctx, userID, updates)
}

// ListUsers returns all users for the admin panel
func (s *UserService) ListUsers(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(users), nil
}

// ListPendingRegistrations returns users still awaiting approval
func (s *UserService) ListPendingRegistrations(ctx context.Context) ([]models.UserResponse, error) {
	users, err := s.userRepo.ListByApprovalStatus(ctx, models.ApprovalPending)
	if err != nil {
		return nil, err
	}
	return toResponses(users), nil
}

// UpdateApprovalStatus moves a registration to approved, declined or
// blocked. Approval/decline triggers a status email; blocking is silent.
func (s *UserService) UpdateApprovalStatus(ctx context.Context, userID uint, status string) (*models.UserResponse, error) {
	if status != models.ApprovalApproved && status != models.ApprovalDeclined && status != models.ApprovalBlocked {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"approval_status": status,
	}); err != nil {
		return nil, err
	}
	user.ApprovalStatus = status

	log.Printf("✅ User %d approval status → %s", userID, status)

	if status != models.ApprovalBlocked && s.notify != nil {
		s.notify.NotifyRegistrationStatus(user.Email, status)
	}

	return user.ToResponse(), nil
}

// DeleteUser removes a user. Appointment rows survive as audit state.
func (s *UserService) DeleteUser(ctx context.Context, userID uint) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}

func toResponses(users []models.User) []models.UserResponse {
	out := make([]models.UserResponse, len(users))
	for i := range users {
		out[i] = *users[i].ToResponse()
	}
	return out
}
