package services

import (
	"context"
	"errors"
	"log"
	"net/mail"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/adapters/persistence/repositories"
	"malita-clinic/internal/config"
	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/pkg/jwt"
	"malita-clinic/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// Roles carried in access tokens
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// AuthService handles patient registration/login and admin login
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	notify           *NotificationService
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	notify *NotificationService,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		notify:           notify,
		cfg:              cfg,
	}
}

// RegisterInput represents patient registration input. ValidIDKey is the
// stored-object key of the uploaded valid-ID document.
type RegisterInput struct {
	FirstName  string `json:"first_name" validate:"required"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	DOB        string `json:"dob" validate:"required"`
	ValidIDKey string `json:"-"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user,omitempty"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token,omitempty"`
}

// Register creates a patient account in pending approval state. The patient
// cannot log in until an admin approves the registration.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*models.UserResponse, error) {
	if input.FirstName == "" || input.LastName == "" || input.Email == "" ||
		input.Password == "" || input.DOB == "" || input.ValidIDKey == "" {
		return nil, domain.ErrInvalidInput
	}

	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, domain.ErrInvalidInput
	}
	if !password.IsStrong(input.Password) {
		return nil, domain.ErrInvalidInput
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:      input.FirstName,
		MiddleName:     input.MiddleName,
		LastName:       input.LastName,
		Email:          input.Email,
		Password:       hashedPassword,
		DOB:            input.DOB,
		ValidID:        input.ValidIDKey,
		ApprovalStatus: models.ApprovalPending,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Patient registered: %s (pending approval)", user.Email)

	if s.notify != nil {
		s.notify.NotifyAdminNewRegistration(user.FullName())
	}

	return user.ToResponse(), nil
}

// Login authenticates an approved patient
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Approval gate: only approved patients may authenticate
	switch user.ApprovalStatus {
	case models.ApprovalPending:
		return nil, domain.ErrUserNotApproved
	case models.ApprovalDeclined:
		return nil, domain.ErrUserDeclined
	case models.ApprovalBlocked:
		return nil, domain.ErrUserBlocked
	}

	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.generateTokens(user.ID, user.Email, RoleUser)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, err
	}

	log.Printf("✅ Patient logged in: %s", user.Email)

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// AdminLogin authenticates the clinic admin against configured credentials
func (s *AuthService) AdminLogin(input *LoginInput) (*AuthResponse, error) {
	if s.cfg.Admin.Email == "" || s.cfg.Admin.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if input.Email != s.cfg.Admin.Email || input.Password != s.cfg.Admin.Password {
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, err := jwt.GenerateAccessToken(0, input.Email, RoleAdmin,
		s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	log.Println("✅ Admin logged in")
	return &AuthResponse{AccessToken: accessToken}, nil
}

// RefreshToken rotates a refresh token and issues a fresh access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	tokenHash := password.HashToken(refreshToken)
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if storedToken.IsRevoked() {
		return nil, ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.IsApproved() {
		return nil, domain.ErrUserNotApproved
	}

	// Token rotation: the old refresh token dies with this exchange
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	accessToken, newRefreshToken, err := s.generateTokens(user.ID, user.Email, RoleUser)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, user.ID, newRefreshToken); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout revokes every active refresh token for a patient
func (s *AuthService) Logout(ctx context.Context, userID uint) error {
	return s.refreshTokenRepo.RevokeAllByUserID(ctx, userID)
}

// generateTokens issues an access/refresh token pair
func (s *AuthService) generateTokens(userID uint, email, role string) (string, string, error) {
	accessToken, err := jwt.GenerateAccessToken(userID, email, role,
		s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := jwt.GenerateRefreshToken(userID, uuid.New().String(),
		s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTokenDays)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// storeRefreshToken persists the hash of a refresh token
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uint, token string) error {
	return s.refreshTokenRepo.Create(ctx, &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(token),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	})
}
