package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Approval statuses gating patient login
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalDeclined = "declined"
	ApprovalBlocked  = "blocked"
)

// User represents the users (patients) table
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	FirstName      string         `gorm:"size:100;not null" json:"first_name"`
	MiddleName     string         `gorm:"size:100" json:"middle_name"`
	LastName       string         `gorm:"size:100;not null" json:"last_name"`
	Email          string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password       string         `gorm:"size:255;not null" json:"-"`
	Phone          string         `gorm:"size:20" json:"phone"`
	Address        string         `gorm:"size:255" json:"address"`
	DOB            string         `gorm:"size:20" json:"dob"`
	Gender         string         `gorm:"size:20" json:"gender"`
	Image          string         `gorm:"size:255" json:"image"`
	ValidID        string         `gorm:"size:255" json:"valid_id"`
	ApprovalStatus string         `gorm:"size:20;default:'pending';index" json:"approval_status"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// FullName joins the patient's name parts for display and notifications
func (u *User) FullName() string {
	if u.MiddleName != "" {
		return u.FirstName + " " + u.MiddleName + " " + u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// IsApproved reports whether the patient may authenticate and book
func (u *User) IsApproved() bool {
	return u.ApprovalStatus == ApprovalApproved
}

// UserResponse DTO (password never leaves the API)
type UserResponse struct {
	ID             uint      `json:"id"`
	FirstName      string    `json:"first_name"`
	MiddleName     string    `json:"middle_name,omitempty"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	DOB            string    `json:"dob,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Image          string    `json:"image,omitempty"`
	ValidID        string    `json:"valid_id,omitempty"`
	ApprovalStatus string    `json:"approval_status"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		FirstName:      u.FirstName,
		MiddleName:     u.MiddleName,
		LastName:       u.LastName,
		Email:          u.Email,
		Phone:          u.Phone,
		Address:        u.Address,
		DOB:            u.DOB,
		Gender:         u.Gender,
		Image:          u.Image,
		ValidID:        u.ValidID,
		ApprovalStatus: u.ApprovalStatus,
		CreatedAt:      u.CreatedAt,
	}
}

// SlotMap is the per-doctor ledger: date key (day_month_year) to the time
// labels already reserved on that day. Stored as a JSON column so the
// doctor row stays the single owner of its ledger.
type SlotMap map[string][]string

// Value implements driver.Valuer
func (m SlotMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *SlotMap) Scan(value interface{}) error {
	if value == nil {
		*m = SlotMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SlotMap", value)
	}

	if len(raw) == 0 {
		*m = SlotMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Has reports whether a time label is already reserved for a date key
func (m SlotMap) Has(dateKey, timeLabel string) bool {
	for _, label := range m[dateKey] {
		if label == timeLabel {
			return true
		}
	}
	return false
}

// Add reserves a time label for a date key; duplicate adds are ignored
func (m SlotMap) Add(dateKey, timeLabel string) {
	if m.Has(dateKey, timeLabel) {
		return
	}
	m[dateKey] = append(m[dateKey], timeLabel)
}

// Remove releases a time label from a date key. Removal is tolerant: an
// absent key or label is a no-op, and other entries are never touched.
// The date key may remain with an empty list after the last release.
func (m SlotMap) Remove(dateKey, timeLabel string) {
	labels, ok := m[dateKey]
	if !ok {
		return
	}
	kept := labels[:0]
	for _, label := range labels {
		if label != timeLabel {
			kept = append(kept, label)
		}
	}
	m[dateKey] = kept
}

// Doctor represents the doctors table. SlotsBooked is the availability
// ledger and is owned exclusively by this row.
type Doctor struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:100;not null" json:"name"`
	NameExtension string         `gorm:"size:50" json:"name_extension"`
	Email         string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password      string         `gorm:"size:255;not null" json:"-"`
	Image         string         `gorm:"size:255" json:"image"`
	Speciality    string         `gorm:"size:100;not null" json:"speciality"`
	Degree        string         `gorm:"size:100" json:"degree"`
	Experience    string         `gorm:"size:50" json:"experience"`
	About         string         `gorm:"type:text" json:"about"`
	Fees          float64        `gorm:"not null" json:"fees"`
	Address       string         `gorm:"size:255" json:"address"`
	LicenseNo     string         `gorm:"size:50" json:"license_no"`
	Available     bool           `gorm:"default:true" json:"available"`
	SlotsBooked   SlotMap        `gorm:"type:json" json:"slots_booked"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Doctor{},
		&Appointment{},
	)
}
