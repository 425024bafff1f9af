package handlers

import (
	"errors"
	"strings"
	"time"

	"malita-clinic/internal/adapters/http/middleware"
	"malita-clinic/internal/config"
	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/core/services"
	"malita-clinic/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	media       *services.MediaService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *services.AuthService,
	userService *services.UserService,
	media *services.MediaService,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		media:       media,
		cfg:         cfg,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles patient registration
// @Summary Register new patient
// @Description Register a new patient account pending admin approval
// @Tags Auth
// @Accept multipart/form-data
// @Produce json
// @Param first_name formData string true "First name"
// @Param last_name formData string true "Last name"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param dob formData string true "Date of birth"
// @Param validId formData file true "Valid ID document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	input := &services.RegisterInput{
		FirstName:  strings.TrimSpace(c.FormValue("first_name")),
		MiddleName: strings.TrimSpace(c.FormValue("middle_name")),
		LastName:   strings.TrimSpace(c.FormValue("last_name")),
		Email:      strings.TrimSpace(c.FormValue("email")),
		Password:   c.FormValue("password"),
		DOB:        strings.TrimSpace(c.FormValue("dob")),
	}

	// Validate required fields
	if input.FirstName == "" {
		return response.BadRequest(c, "First name is required")
	}
	if input.LastName == "" {
		return response.BadRequest(c, "Last name is required")
	}
	if input.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if input.Password == "" {
		return response.BadRequest(c, "Password is required")
	}
	if len(input.Password) < 8 {
		return response.BadRequest(c, "Password must be at least 8 characters")
	}
	if input.DOB == "" {
		return response.BadRequest(c, "Date of birth is required")
	}

	// Valid ID document upload
	fileHeader, err := c.FormFile("validId")
	if err != nil {
		return response.BadRequest(c, "Valid ID document is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Could not read valid ID document")
	}
	defer file.Close()

	key, err := h.media.Upload(c.Context(), "valid-ids", fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		return response.InternalServerError(c, "Failed to store valid ID document")
	}
	if key == "" {
		// Uploads disabled: keep the original filename as a placeholder key
		key = fileHeader.Filename
	}
	input.ValidIDKey = key

	user, err := h.authService.Register(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid registration details")
		case errors.Is(err, domain.ErrUserAlreadyExists):
			return response.Conflict(c, "Email already registered")
		default:
			return response.InternalServerError(c, "Failed to register")
		}
	}

	return response.Created(c, "Registration submitted, awaiting approval", fiber.Map{
		"user": user,
	})
}

// Login handles patient login
// @Summary Login patient
// @Description Authenticate an approved patient and return tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	input := &services.LoginInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	}

	result, err := h.authService.Login(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid email or password")
		case errors.Is(err, domain.ErrUserNotApproved):
			return response.Forbidden(c, "Account is pending approval")
		case errors.Is(err, domain.ErrUserDeclined):
			return response.Forbidden(c, "Account registration was declined")
		case errors.Is(err, domain.ErrUserBlocked):
			return response.Forbidden(c, "Account is blocked")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Login successful", fiber.Map{
		"access_token": result.AccessToken,
		"user":         result.User,
	})
}

// AdminLogin handles admin login
// @Summary Login admin
// @Description Authenticate the clinic admin
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Admin credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	result, err := h.authService.AdminLogin(&services.LoginInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		return response.Unauthorized(c, "Invalid admin credentials")
	}

	return response.Success(c, "Admin login successful", fiber.Map{
		"access_token": result.AccessToken,
	})
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Refresh access token using refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.RefreshToken(c.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token expired, please login again")
		case errors.Is(err, services.ErrTokenRevoked):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token revoked, please login again")
		case errors.Is(err, services.ErrInvalidToken):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, domain.ErrUserNotApproved):
			h.clearAuthCookies(c)
			return response.Forbidden(c, "Account is no longer approved")
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Token refreshed successfully", fiber.Map{
		"access_token": result.AccessToken,
		"user":         result.User,
	})
}

// Logout handles patient logout
// @Summary Logout patient
// @Description Logout and revoke refresh tokens
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if userID, ok := middleware.UserID(c); ok && userID != 0 {
		_ = h.authService.Logout(c.Context(), userID)
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Logged out successfully", nil)
}

// Me returns the current patient's profile
// @Summary Get current patient
// @Description Get the currently authenticated patient's profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user,
	})
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60,
		Secure:   h.cfg.IsProd(),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.RefreshTokenDays * 24 * 60 * 60,
		Secure:   h.cfg.IsProd(),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Now().Add(-1 * time.Hour),
			Secure:   h.cfg.IsProd(),
			HTTPOnly: true,
			SameSite: "Lax",
		})
	}
}
