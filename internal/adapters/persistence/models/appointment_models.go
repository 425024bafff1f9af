package models

import (
	"time"
)

// Actors recorded in cancelled_by
const (
	CancelledByPatient = "patient"
	CancelledByAdmin   = "admin"
	CancelledBySystem  = "system"
)

// Default cancellation reasons per actor
const (
	ReasonCancelledByPatient = "Cancelled by patient"
	ReasonCancelledByAdmin   = "Cancelled by admin"
	ReasonAutoCancelled      = "Auto-cancelled: appointment date passed"
)

// PatientSnapshot is the patient data frozen into an appointment at booking
// time. It is display/audit state, never re-joined to the live user row.
type PatientSnapshot struct {
	Name  string `gorm:"size:255" json:"name"`
	Email string `gorm:"size:100" json:"email"`
	Phone string `gorm:"size:20" json:"phone"`
	DOB   string `gorm:"size:20" json:"dob"`
}

// DoctorSnapshot is the doctor data frozen into an appointment at booking time
type DoctorSnapshot struct {
	Name       string  `gorm:"size:100" json:"name"`
	Email      string  `gorm:"size:100" json:"email"`
	Speciality string  `gorm:"size:100" json:"speciality"`
	Degree     string  `gorm:"size:100" json:"degree"`
	Image      string  `gorm:"size:255" json:"image"`
	Address    string  `gorm:"size:255" json:"address"`
	Fees       float64 `json:"fees"`
}

// Appointment represents the appointments table. Rows are soft state and are
// never physically deleted; cancelled/approved are recorded in place.
type Appointment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	DoctorID uint   `gorm:"not null;index" json:"doctor_id"`
	SlotDate string `gorm:"size:20;not null;index" json:"slot_date"`
	SlotTime string `gorm:"size:20;not null" json:"slot_time"`

	Patient PatientSnapshot `gorm:"embedded;embeddedPrefix:patient_" json:"patient"`
	Doctor  DoctorSnapshot  `gorm:"embedded;embeddedPrefix:doctor_" json:"doctor"`

	Amount             float64   `gorm:"not null" json:"amount"`
	Cancelled          bool      `gorm:"default:false;index" json:"cancelled"`
	CancelledBy        string    `gorm:"size:20" json:"cancelled_by,omitempty"`
	CancellationReason string    `gorm:"size:255" json:"cancellation_reason,omitempty"`
	IsCompleted        bool      `gorm:"default:false;index" json:"is_completed"`
	Payment            bool      `gorm:"default:false" json:"payment"`
	IsRead             bool      `gorm:"default:false" json:"is_read"`
	BookedAt           time.Time `gorm:"not null" json:"booked_at"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsOpen reports whether the appointment is still in the active-pending state
func (a *Appointment) IsOpen() bool {
	return !a.Cancelled && !a.IsCompleted
}
