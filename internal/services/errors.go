package services

import "errors"

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUserNotFound      = errors.New("user not found")
	ErrTrainerNotFound   = errors.New("trainer not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfBooking       = errors.New("self booking not allowed")
	ErrAlreadyResolved   = errors.New("already resolved")
	ErrNotEligible       = errors.New("not eligible")
)
