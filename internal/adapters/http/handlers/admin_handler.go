package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/core/services"
	"malita-clinic/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles admin-only endpoints
type AdminHandler struct {
	userService    *services.UserService
	doctorService  *services.DoctorService
	bookingService *services.BookingService
	sweeperService *services.SweeperService
	statsService   *services.StatsService
	media          *services.MediaService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	userService *services.UserService,
	doctorService *services.DoctorService,
	bookingService *services.BookingService,
	sweeperService *services.SweeperService,
	statsService *services.StatsService,
	media *services.MediaService,
) *AdminHandler {
	return &AdminHandler{
		userService:    userService,
		doctorService:  doctorService,
		bookingService: bookingService,
		sweeperService: sweeperService,
		statsService:   statsService,
		media:          media,
	}
}

// ApprovalRequest represents a registration approval request body
type ApprovalRequest struct {
	Status string `json:"status"`
}

// ListAppointments sweeps expired appointments, then lists all
// appointments, newest first
// @Summary List all appointments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/appointments [get]
func (h *AdminHandler) ListAppointments(c *fiber.Ctx) error {
	// Lazy sweep so the admin never sees stale open appointments
	if _, err := h.sweeperService.Sweep(time.Now()); err != nil {
		return response.InternalServerError(c, "Failed to expire past appointments")
	}

	appointments, err := h.bookingService.ListAllAppointments()
	if err != nil {
		return response.InternalServerError(c, "Failed to list appointments")
	}

	return response.Success(c, "Appointments retrieved successfully", fiber.Map{
		"appointments": appointments,
	})
}

// CancelAppointment cancels any appointment on behalf of the clinic
// @Summary Cancel appointment (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Param body body CancelRequest false "Cancellation reason"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/appointments/{id}/cancel [post]
func (h *AdminHandler) CancelAppointment(c *fiber.Ctx) error {
	appointmentID, err := c.ParamsInt("id")
	if err != nil || appointmentID <= 0 {
		return response.BadRequest(c, "Invalid appointment id")
	}

	var req CancelRequest
	_ = c.BodyParser(&req)

	appt, changed, err := h.bookingService.Cancel(uint(appointmentID),
		models.CancelledByAdmin, 0, strings.TrimSpace(req.Reason))
	if err != nil {
		if errors.Is(err, domain.ErrAppointmentNotFound) {
			return response.NotFound(c, "Appointment not found")
		}
		return response.InternalServerError(c, "Failed to cancel appointment")
	}

	message := "Appointment cancelled successfully"
	if !changed {
		message = "Appointment was already cancelled"
	}

	return response.Success(c, message, fiber.Map{
		"appointment": appt,
	})
}

// ApproveAppointment marks an appointment as completed
// @Summary Approve appointment
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/appointments/{id}/approve [post]
func (h *AdminHandler) ApproveAppointment(c *fiber.Ctx) error {
	appointmentID, err := c.ParamsInt("id")
	if err != nil || appointmentID <= 0 {
		return response.BadRequest(c, "Invalid appointment id")
	}

	appt, changed, err := h.bookingService.Approve(uint(appointmentID))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAppointmentNotFound):
			return response.NotFound(c, "Appointment not found")
		case errors.Is(err, domain.ErrInvalidAppointmentState):
			return response.Conflict(c, "Cancelled appointments cannot be approved")
		default:
			return response.InternalServerError(c, "Failed to approve appointment")
		}
	}

	message := "Appointment approved successfully"
	if !changed {
		message = "Appointment was already approved"
	}

	return response.Success(c, message, fiber.Map{
		"appointment": appt,
	})
}

// AddDoctor creates a new doctor
// @Summary Add doctor
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/doctors [post]
func (h *AdminHandler) AddDoctor(c *fiber.Ctx) error {
	fees, _ := strconv.ParseFloat(c.FormValue("fees"), 64)

	input := &services.AddDoctorInput{
		Name:          strings.TrimSpace(c.FormValue("name")),
		NameExtension: strings.TrimSpace(c.FormValue("name_extension")),
		Email:         strings.TrimSpace(c.FormValue("email")),
		Password:      c.FormValue("password"),
		Speciality:    strings.TrimSpace(c.FormValue("speciality")),
		Degree:        strings.TrimSpace(c.FormValue("degree")),
		Experience:    strings.TrimSpace(c.FormValue("experience")),
		About:         strings.TrimSpace(c.FormValue("about")),
		Fees:          fees,
		Address:       strings.TrimSpace(c.FormValue("address")),
		LicenseNo:     strings.TrimSpace(c.FormValue("license_no")),
	}

	// Optional doctor image
	if fileHeader, err := c.FormFile("image"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return response.BadRequest(c, "Could not read doctor image")
		}
		defer file.Close()

		key, err := h.media.Upload(c.Context(), "doctors", fileHeader.Filename,
			fileHeader.Header.Get("Content-Type"), file)
		if err != nil {
			return response.InternalServerError(c, "Failed to store doctor image")
		}
		input.ImageKey = key
	}

	doctor, err := h.doctorService.AddDoctor(input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, "Invalid doctor details")
		}
		return response.InternalServerError(c, "Failed to add doctor")
	}

	return response.Created(c, "Doctor added successfully", fiber.Map{
		"doctor": doctor,
	})
}

// UpdateDoctor updates a doctor's details
// @Summary Update doctor
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/doctors/{id} [put]
func (h *AdminHandler) UpdateDoctor(c *fiber.Ctx) error {
	doctorID, err := c.ParamsInt("id")
	if err != nil || doctorID <= 0 {
		return response.BadRequest(c, "Invalid doctor id")
	}

	var input services.UpdateDoctorInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.doctorService.UpdateDoctor(uint(doctorID), &input); err != nil {
		switch {
		case errors.Is(err, domain.ErrDoctorNotFound):
			return response.NotFound(c, "Doctor not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid doctor details")
		default:
			return response.InternalServerError(c, "Failed to update doctor")
		}
	}

	return response.Success(c, "Doctor updated successfully", nil)
}

// DeleteDoctor removes a doctor
// @Summary Delete doctor
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/doctors/{id} [delete]
func (h *AdminHandler) DeleteDoctor(c *fiber.Ctx) error {
	doctorID, err := c.ParamsInt("id")
	if err != nil || doctorID <= 0 {
		return response.BadRequest(c, "Invalid doctor id")
	}

	if err := h.doctorService.DeleteDoctor(uint(doctorID)); err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			return response.NotFound(c, "Doctor not found")
		}
		return response.InternalServerError(c, "Failed to delete doctor")
	}

	return response.Success(c, "Doctor deleted successfully", nil)
}

// ChangeDoctorAvailability toggles whether a doctor accepts bookings
// @Summary Toggle doctor availability
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/doctors/{id}/availability [patch]
func (h *AdminHandler) ChangeDoctorAvailability(c *fiber.Ctx) error {
	doctorID, err := c.ParamsInt("id")
	if err != nil || doctorID <= 0 {
		return response.BadRequest(c, "Invalid doctor id")
	}

	available, err := h.doctorService.ChangeAvailability(uint(doctorID))
	if err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			return response.NotFound(c, "Doctor not found")
		}
		return response.InternalServerError(c, "Failed to change availability")
	}

	return response.Success(c, "Availability changed successfully", fiber.Map{
		"available": available,
	})
}

// ListUsers lists all patients
// @Summary List patients
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", fiber.Map{
		"users": users,
	})
}

// ListPendingRegistrations lists patients awaiting approval
// @Summary List pending registrations
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/users/pending [get]
func (h *AdminHandler) ListPendingRegistrations(c *fiber.Ctx) error {
	users, err := h.userService.ListPendingRegistrations(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list pending registrations")
	}

	return response.Success(c, "Pending registrations retrieved successfully", fiber.Map{
		"users": users,
	})
}

// UpdateApprovalStatus approves, declines or blocks a patient account
// @Summary Update registration approval status
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body ApprovalRequest true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id}/approval [patch]
func (h *AdminHandler) UpdateApprovalStatus(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return response.BadRequest(c, "Invalid user id")
	}

	var req ApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.UpdateApprovalStatus(c.Context(), uint(userID),
		strings.TrimSpace(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid approval status")
		default:
			return response.InternalServerError(c, "Failed to update approval status")
		}
	}

	return response.Success(c, "Approval status updated successfully", fiber.Map{
		"user": user,
	})
}

// DeleteUser removes a patient account
// @Summary Delete patient
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return response.BadRequest(c, "Invalid user id")
	}

	if err := h.userService.DeleteUser(c.Context(), uint(userID)); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to delete user")
	}

	return response.Success(c, "User deleted successfully", nil)
}

// Dashboard returns aggregated clinic counters and latest bookings
// @Summary Admin dashboard
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	data, err := h.statsService.GetDashboard()
	if err != nil {
		return response.InternalServerError(c, "Failed to load dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}

// UserStats returns per-patient appointment statistics
// @Summary Per-patient appointment stats
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/stats/users [get]
func (h *AdminHandler) UserStats(c *fiber.Ctx) error {
	stats, err := h.statsService.GetUserStats()
	if err != nil {
		return response.InternalServerError(c, "Failed to compute user stats")
	}

	return response.Success(c, "User stats retrieved successfully", fiber.Map{
		"stats": stats,
	})
}
