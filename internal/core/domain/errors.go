package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized action")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrStorage            = errors.New("storage error")
)

// User errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("email already registered")
	ErrUserNotApproved   = errors.New("registration is pending approval")
	ErrUserDeclined      = errors.New("registration has been declined")
	ErrUserBlocked       = errors.New("account has been blocked")
)

// Booking errors
var (
	ErrDoctorNotFound          = errors.New("doctor not found")
	ErrDoctorUnavailable       = errors.New("doctor not available")
	ErrSlotTaken               = errors.New("slot not available")
	ErrOutsideBookingWindow    = errors.New("appointment date outside booking window")
	ErrInvalidDateKey          = errors.New("invalid slot date")
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidAppointmentState = errors.New("invalid appointment state for this action")
)
