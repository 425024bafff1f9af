package services

import (
	"fmt"
	"io"
	"log"

	"malita-clinic/internal/adapters/persistence/models"
	"malita-clinic/internal/config"

	"github.com/go-gomail/gomail"
)

// NotificationService sends email side effects for lifecycle transitions.
// Every send is best-effort: a failure is logged and reported as false,
// never propagated to the transition that triggered it.
type NotificationService struct {
	cfg     config.SMTPConfig
	enabled bool
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg config.SMTPConfig) *NotificationService {
	return &NotificationService{
		cfg:     cfg,
		enabled: cfg.Email != "" && cfg.Password != "",
	}
}

// IsEnabled checks if mail sending is configured
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

func (s *NotificationService) send(to, subject, body string, attachName string, attachData []byte) bool {
	if !s.enabled {
		return false
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%q <%s>", "Malita-Doc Support", s.cfg.Email))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if attachName != "" && attachData != nil {
		m.Attach(attachName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachData)
			return err
		}))
	}

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Email, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		log.Printf("❌ Failed to send mail %q to %s: %v", subject, to, err)
		return false
	}
	return true
}

// NotifyRegistrationStatus informs a patient of an approval decision
func (s *NotificationService) NotifyRegistrationStatus(userEmail, status string) bool {
	subject := "Registration Update - Malita-Doc"
	body := "We regret to inform you that your registration has been DECLINED. Please contact Malita-Doc Support for more information."
	if status == models.ApprovalApproved {
		subject = "Registration Approved - Malita-Doc"
		body = "Congratulations! Your registration has been APPROVED. You can now log in to your account."
	}
	return s.send(userEmail, subject, body, "", nil)
}

// NotifyAdminNewRegistration alerts the clinic admin about a new registration
func (s *NotificationService) NotifyAdminNewRegistration(patientName string) bool {
	if s.cfg.AdminEmail == "" {
		return false
	}
	body := fmt.Sprintf(
		"A new patient has registered on the Malita-Doc platform:\n\n%s\n\nPlease review this registration in the pending registrations section of the admin panel.",
		patientName,
	)
	return s.send(s.cfg.AdminEmail, "New Patient Registration - Malita-Doc", body, "", nil)
}

// NotifyDoctorNewAppointment informs a doctor about a fresh booking
func (s *NotificationService) NotifyDoctorNewAppointment(appt *models.Appointment) bool {
	body := fmt.Sprintf(
		"A new appointment has been booked.\n\nPatient: %s\nDate: %s\nTime: %s\nFee: %.2f",
		appt.Patient.Name,
		appt.SlotDate,
		appt.SlotTime,
		appt.Amount,
	)
	return s.send(appt.Doctor.Email, "New Appointment - Malita-Doc", body, "", nil)
}

// NotifyPaymentReceipt mails the patient a PDF receipt after settlement
func (s *NotificationService) NotifyPaymentReceipt(appt *models.Appointment, receipt []byte) bool {
	body := fmt.Sprintf(
		"Payment received for your appointment with %s on %s at %s. Your receipt is attached.",
		appt.Doctor.Name,
		appt.SlotDate,
		appt.SlotTime,
	)
	return s.send(appt.Patient.Email, "Payment Confirmation - Malita-Doc", body, "receipt.pdf", receipt)
}
