package app

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("user not found")
	ErrUsernameExists    = errors.New("username already exists")
	ErrEmailExists       = errors.New("email already exists")
	ErrConflict          = errors.New("username or email already exists")
	ErrInvalidCredential = errors.New("invalid email or password")
)

// IsConflict reports whether err is any uniqueness violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUsernameExists) ||
		errors.Is(err, ErrEmailExists)
}
