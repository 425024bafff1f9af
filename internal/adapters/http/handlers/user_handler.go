package handlers

import (
	"errors"
	"strings"

	"malita-clinic/internal/adapters/http/middleware"
	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/core/services"
	"malita-clinic/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles patient-facing endpoints
type UserHandler struct {
	userService    *services.UserService
	bookingService *services.BookingService
	media          *services.MediaService
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userService *services.UserService,
	bookingService *services.BookingService,
	media *services.MediaService,
) *UserHandler {
	return &UserHandler{
		userService:    userService,
		bookingService: bookingService,
		media:          media,
	}
}

// BookRequest represents an appointment booking request body
type BookRequest struct {
	DoctorID uint   `json:"doctor_id"`
	SlotDate string `json:"slot_date"`
	SlotTime string `json:"slot_time"`
}

// CancelRequest represents a cancellation request body
type CancelRequest struct {
	Reason string `json:"reason"`
}

// GetProfile returns the patient's profile
// @Summary Get patient profile
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /user/profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	profile, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, "Profile retrieved successfully", fiber.Map{
		"user": profile,
	})
}

// UpdateProfile updates the patient's profile
// @Summary Update patient profile
// @Tags User
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param first_name formData string true "First name"
// @Param last_name formData string true "Last name"
// @Param phone formData string true "Phone"
// @Param dob formData string true "Date of birth"
// @Param gender formData string true "Gender"
// @Param image formData file false "Profile image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /user/profile [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	input := &services.UpdateProfileInput{
		FirstName: strings.TrimSpace(c.FormValue("first_name")),
		LastName:  strings.TrimSpace(c.FormValue("last_name")),
		Phone:     strings.TrimSpace(c.FormValue("phone")),
		Address:   strings.TrimSpace(c.FormValue("address")),
		DOB:       strings.TrimSpace(c.FormValue("dob")),
		Gender:    strings.TrimSpace(c.FormValue("gender")),
	}

	if input.FirstName == "" || input.LastName == "" || input.Phone == "" ||
		input.DOB == "" || input.Gender == "" {
		return response.BadRequest(c, "Missing required profile fields")
	}

	// Optional profile image
	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return response.BadRequest(c, "Could not read profile image")
		}
		defer file.Close()

		key, err := h.media.Upload(c.Context(), "profiles", fileHeader.Filename,
			fileHeader.Header.Get("Content-Type"), file)
		if err != nil {
			return response.InternalServerError(c, "Failed to store profile image")
		}
		input.ImageKey = key
	}

	if err := h.userService.UpdateProfile(c.Context(), userID, input); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid profile details")
		default:
			return response.InternalServerError(c, "Failed to update profile")
		}
	}

	return response.Success(c, "Profile updated successfully", nil)
}

// BookAppointment books a slot with a doctor
// @Summary Book appointment
// @Description Reserve a slot and create an appointment
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BookRequest true "Booking data"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /user/appointments [post]
func (h *UserHandler) BookAppointment(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req BookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.DoctorID == 0 {
		return response.BadRequest(c, "Doctor is required")
	}
	if req.SlotDate == "" {
		return response.BadRequest(c, "Slot date is required")
	}
	if req.SlotTime == "" {
		return response.BadRequest(c, "Slot time is required")
	}

	appt, err := h.bookingService.Book(&services.BookInput{
		UserID:   userID,
		DoctorID: req.DoctorID,
		SlotDate: strings.TrimSpace(req.SlotDate),
		SlotTime: strings.TrimSpace(req.SlotTime),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidDateKey):
			return response.BadRequest(c, "Invalid slot date")
		case errors.Is(err, domain.ErrOutsideBookingWindow):
			return response.BadRequest(c, "Date is outside the allowed booking window")
		case errors.Is(err, domain.ErrDoctorNotFound):
			return response.NotFound(c, "Doctor not found")
		case errors.Is(err, domain.ErrDoctorUnavailable):
			return response.Conflict(c, "Doctor is not available")
		case errors.Is(err, domain.ErrSlotTaken):
			return response.Conflict(c, "Slot is already booked")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid booking details")
		default:
			return response.InternalServerError(c, "Failed to book appointment")
		}
	}

	return response.Created(c, "Appointment booked successfully", fiber.Map{
		"appointment": appt,
	})
}

// CancelAppointment cancels the patient's own appointment
// @Summary Cancel appointment
// @Description Cancel an appointment and release its slot
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Param body body CancelRequest false "Cancellation reason"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /user/appointments/{id}/cancel [post]
func (h *UserHandler) CancelAppointment(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	appointmentID, err := c.ParamsInt("id")
	if err != nil || appointmentID <= 0 {
		return response.BadRequest(c, "Invalid appointment id")
	}

	var req CancelRequest
	_ = c.BodyParser(&req)

	appt, changed, err := h.bookingService.Cancel(uint(appointmentID),
		models.CancelledByPatient, userID, strings.TrimSpace(req.Reason))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAppointmentNotFound):
			return response.NotFound(c, "Appointment not found")
		case errors.Is(err, domain.ErrUnauthorized):
			return response.Forbidden(c, "You can only cancel your own appointments")
		default:
			return response.InternalServerError(c, "Failed to cancel appointment")
		}
	}

	message := "Appointment cancelled successfully"
	if !changed {
		message = "Appointment was already cancelled"
	}

	return response.Success(c, message, fiber.Map{
		"appointment": appt,
	})
}

// ListAppointments lists the patient's appointments, newest first
// @Summary List own appointments
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /user/appointments [get]
func (h *UserHandler) ListAppointments(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	appointments, err := h.bookingService.ListUserAppointments(userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list appointments")
	}

	return response.Success(c, "Appointments retrieved successfully", fiber.Map{
		"appointments": appointments,
	})
}

// MarkAppointmentRead marks an appointment notification as read
// @Summary Mark appointment as read
// @Tags User
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /user/appointments/{id}/read [patch]
func (h *UserHandler) MarkAppointmentRead(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	appointmentID, err := c.ParamsInt("id")
	if err != nil || appointmentID <= 0 {
		return response.BadRequest(c, "Invalid appointment id")
	}

	if err := h.bookingService.MarkRead(uint(appointmentID), userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrAppointmentNotFound):
			return response.NotFound(c, "Appointment not found")
		case errors.Is(err, domain.ErrUnauthorized):
			return response.Forbidden(c, "You can only update your own appointments")
		default:
			return response.InternalServerError(c, "Failed to mark appointment as read")
		}
	}

	return response.Success(c, "Appointment marked as read", nil)
}
