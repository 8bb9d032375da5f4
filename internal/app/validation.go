package app

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxUsernameLen = 50
	maxEmailLen    = 254
	maxPasswordLen = 12
)

var validate = validator.New()

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	// max counts runes for strings
	if err := validate.Var(username, fmt.Sprintf("max=%d", maxUsernameLen)); err != nil {
		return fmt.Errorf("%w: username must be at most %d characters", ErrValidation, maxUsernameLen)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if err := validate.Var(email, fmt.Sprintf("email,max=%d", maxEmailLen)); err != nil {
		return fmt.Errorf("%w: enter a valid email address", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if err := validate.Var(password, fmt.Sprintf("max=%d", maxPasswordLen)); err != nil {
		return fmt.Errorf("%w: password must be at most %d characters", ErrValidation, maxPasswordLen)
	}
	return nil
}
