package handlers

import (
	"errors"

	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/core/services"
	"malita-clinic/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DoctorHandler handles public doctor endpoints
type DoctorHandler struct {
	doctorService *services.DoctorService
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(doctorService *services.DoctorService) *DoctorHandler {
	return &DoctorHandler{doctorService: doctorService}
}

// ListDoctors lists all doctors with their booked slot ledgers
// @Summary List doctors
// @Description List all doctors for browsing and slot discovery
// @Tags Doctor
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /doctors [get]
func (h *DoctorHandler) ListDoctors(c *fiber.Ctx) error {
	doctors, err := h.doctorService.ListDoctors()
	if err != nil {
		return response.InternalServerError(c, "Failed to list doctors")
	}

	return response.Success(c, "Doctors retrieved successfully", fiber.Map{
		"doctors": doctors,
	})
}

// GetDoctor returns a single doctor
// @Summary Get doctor
// @Tags Doctor
// @Produce json
// @Param id path int true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /doctors/{id} [get]
func (h *DoctorHandler) GetDoctor(c *fiber.Ctx) error {
	doctorID, err := c.ParamsInt("id")
	if err != nil || doctorID <= 0 {
		return response.BadRequest(c, "Invalid doctor id")
	}

	doctor, err := h.doctorService.GetDoctor(uint(doctorID))
	if err != nil {
		if errors.Is(err, domain.ErrDoctorNotFound) {
			return response.NotFound(c, "Doctor not found")
		}
		return response.InternalServerError(c, "Failed to get doctor")
	}

	return response.Success(c, "Doctor retrieved successfully", fiber.Map{
		"doctor": doctor,
	})
}
