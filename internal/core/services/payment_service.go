package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/adapters/persistence/repositories"
	"malita-clinic/internal/config"
	"malita-clinic/internal/core/domain"
	"malita-clinic/internal/pkg/invoice"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"gorm.io/gorm"
)

// Payment errors
var (
	ErrPaymentFailed = errors.New("payment failed")
)

// PaymentService settles appointment fees through razorpay or stripe.
// Settlement only flips the appointment's payment flag; it never touches
// the lifecycle state machine.
type PaymentService struct {
	apptRepo repositories.AppointmentRepository
	notify   *NotificationService
	cfg      *config.Config
	razorpay *razorpay.Client
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	apptRepo repositories.AppointmentRepository,
	notify *NotificationService,
	cfg *config.Config,
) *PaymentService {
	var client *razorpay.Client
	if cfg.Razorpay.KeyID != "" {
		client = razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	}
	if cfg.Stripe.SecretKey != "" {
		stripe.Key = cfg.Stripe.SecretKey
	}

	return &PaymentService{
		apptRepo: apptRepo,
		notify:   notify,
		cfg:      cfg,
		razorpay: client,
	}
}

// payableAppointment loads an appointment that can still be paid for
func (s *PaymentService) payableAppointment(appointmentID uint) (*models.Appointment, error) {
	appt, err := s.apptRepo.GetByID(appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}
	if appt.Cancelled {
		return nil, domain.ErrInvalidAppointmentState
	}
	return appt, nil
}

// CreateRazorpayOrder creates a razorpay order for an appointment fee.
// The order receipt carries the appointment id so verification can find
// its way back.
func (s *PaymentService) CreateRazorpayOrder(appointmentID uint) (map[string]interface{}, error) {
	if s.razorpay == nil {
		return nil, ErrPaymentFailed
	}

	appt, err := s.payableAppointment(appointmentID)
	if err != nil {
		return nil, err
	}

	// Gateway amounts are in the currency's smallest unit
	data := map[string]interface{}{
		"amount":   int64(appt.Amount * 100),
		"currency": s.cfg.Currency,
		"receipt":  strconv.FormatUint(uint64(appt.ID), 10),
	}

	order, err := s.razorpay.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}
	return order, nil
}

// VerifyRazorpay fetches an order and, when paid, marks the appointment
// settled. Returns the settled appointment or ErrPaymentFailed.
func (s *PaymentService) VerifyRazorpay(orderID string) (*models.Appointment, error) {
	if s.razorpay == nil {
		return nil, ErrPaymentFailed
	}

	order, err := s.razorpay.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order fetch: %w", err)
	}

	status, _ := order["status"].(string)
	if status != "paid" {
		return nil, ErrPaymentFailed
	}

	receipt, _ := order["receipt"].(string)
	appointmentID, err := strconv.ParseUint(receipt, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("razorpay order %s has invalid receipt %q", orderID, receipt)
	}

	return s.settle(uint(appointmentID))
}

// CreateStripeSession creates a stripe checkout session for an appointment
// fee and returns the hosted payment URL.
func (s *PaymentService) CreateStripeSession(appointmentID uint, origin string) (string, error) {
	if s.cfg.Stripe.SecretKey == "" {
		return "", ErrPaymentFailed
	}

	appt, err := s.payableAppointment(appointmentID)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(fmt.Sprintf("%s/verify?success=true&appointmentId=%d", origin, appt.ID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/verify?success=false&appointmentId=%d", origin, appt.ID)),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Appointment Fees"),
					},
					UnitAmount: stripe.Int64(int64(appt.Amount * 100)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe session create: %w", err)
	}
	return sess.URL, nil
}

// VerifyStripe settles an appointment after a successful checkout redirect
func (s *PaymentService) VerifyStripe(appointmentID uint, success bool) (*models.Appointment, error) {
	if !success {
		return nil, ErrPaymentFailed
	}
	if _, err := s.payableAppointment(appointmentID); err != nil {
		return nil, err
	}
	return s.settle(appointmentID)
}

// settle flips the payment flag and mails a receipt best-effort
func (s *PaymentService) settle(appointmentID uint) (*models.Appointment, error) {
	appt, err := s.apptRepo.GetByID(appointmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, err
	}

	if err := s.apptRepo.Update(appt.ID, map[string]interface{}{"payment": true}); err != nil {
		return nil, err
	}
	appt.Payment = true

	log.Printf("✅ Appointment %d payment settled", appt.ID)

	if s.notify != nil {
		receiptNo := fmt.Sprintf("MC-%d", appt.ID)
		pdf, err := invoice.Receipt(appt, receiptNo, s.cfg.Currency)
		if err != nil {
			log.Printf("⚠️ Receipt render failed for appointment %d: %v", appt.ID, err)
		} else {
			s.notify.NotifyPaymentReceipt(appt, pdf)
		}
	}

	return appt, nil
}
