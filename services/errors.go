package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("could not validate credentials")
	ErrInactiveUser       = errors.New("inactive user")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrPasswordTooLong    = errors.New("password must not exceed 72 bytes")
	ErrInvalidDateFormat  = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrInvalidDateRange   = errors.New("date_from must not be after date_to")
)
