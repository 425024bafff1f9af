package handlers

import (
	"errors"

	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/core/services"
	"malita-clinic/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles appointment fee payments
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RazorpayVerifyRequest represents a razorpay verification request body
type RazorpayVerifyRequest struct {
	OrderID string `json:"razorpay_order_id"`
}

// StripeVerifyRequest represents a stripe verification request body
type StripeVerifyRequest struct {
	AppointmentID uint `json:"appointment_id"`
	Success       bool `json:"success"`
}

// CreateRazorpayOrder creates a razorpay order for an appointment
// @Summary Create razorpay order
// @Tags Payment
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/razorpay/{id} [post]
func (h *PaymentHandler) CreateRazorpayOrder(c *fiber.Ctx) error {
	appointmentID, err := c.ParamsInt("id")
	if err != nil || appointmentID <= 0 {
		return response.BadRequest(c, "Invalid appointment id")
	}

	order, err := h.paymentService.CreateRazorpayOrder(uint(appointmentID))
	if err != nil {
		return h.paymentError(c, err, "Failed to create payment order")
	}

	return response.Success(c, "Payment order created", fiber.Map{
		"order": order,
	})
}

// VerifyRazorpay verifies a razorpay order and settles the appointment
// @Summary Verify razorpay payment
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RazorpayVerifyRequest true "Order reference"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments/razorpay/verify [post]
func (h *PaymentHandler) VerifyRazorpay(c *fiber.Ctx) error {
	var req RazorpayVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.OrderID == "" {
		return response.BadRequest(c, "Order id is required")
	}

	appt, err := h.paymentService.VerifyRazorpay(req.OrderID)
	if err != nil {
		return h.paymentError(c, err, "Payment verification failed")
	}

	return response.Success(c, "Payment successful", fiber.Map{
		"appointment": appt,
	})
}

// CreateStripeSession creates a stripe checkout session for an appointment
// @Summary Create stripe checkout session
// @Tags Payment
// @Produce json
// @Security BearerAuth
// @Param id path int true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/stripe/{id} [post]
func (h *PaymentHandler) CreateStripeSession(c *fiber.Ctx) error {
	appointmentID, err := c.ParamsInt("id")
	if err != nil || appointmentID <= 0 {
		return response.BadRequest(c, "Invalid appointment id")
	}

	origin := c.Get("Origin")
	if origin == "" {
		origin = c.BaseURL()
	}

	url, err := h.paymentService.CreateStripeSession(uint(appointmentID), origin)
	if err != nil {
		return h.paymentError(c, err, "Failed to create checkout session")
	}

	return response.Success(c, "Checkout session created", fiber.Map{
		"session_url": url,
	})
}

// VerifyStripe settles an appointment after a stripe checkout redirect
// @Summary Verify stripe payment
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StripeVerifyRequest true "Checkout result"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments/stripe/verify [post]
func (h *PaymentHandler) VerifyStripe(c *fiber.Ctx) error {
	var req StripeVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.AppointmentID == 0 {
		return response.BadRequest(c, "Appointment id is required")
	}

	appt, err := h.paymentService.VerifyStripe(req.AppointmentID, req.Success)
	if err != nil {
		return h.paymentError(c, err, "Payment verification failed")
	}

	return response.Success(c, "Payment successful", fiber.Map{
		"appointment": appt,
	})
}

// paymentError maps payment service errors to HTTP responses
func (h *PaymentHandler) paymentError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrAppointmentNotFound):
		return response.NotFound(c, "Appointment not found")
	case errors.Is(err, domain.ErrInvalidAppointmentState):
		return response.Conflict(c, "Cancelled appointments cannot be paid for")
	case errors.Is(err, services.ErrPaymentFailed):
		return response.BadRequest(c, "Payment not completed")
	default:
		return response.InternalServerError(c, fallback)
	}
}
