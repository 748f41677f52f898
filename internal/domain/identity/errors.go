package identity

import (
	"errors"
	"strings"
)

// Classified auth errors. The provider reports failures as error codes
// embedded in message text; Classify maps them onto these sentinels.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotFound      = errors.New("email not found, please sign up first")
	ErrEmailExists        = errors.New("email is already registered, please log in")
	ErrWeakPassword       = errors.New("password is too weak, use at least 6 characters")
)

// Classify maps a provider error message onto a sentinel error by
// substring match. Returns nil when the message matches no known code.
func Classify(message string) error {
	switch {
	case strings.Contains(message, "INVALID_PASSWORD"),
		strings.Contains(message, "INVALID_LOGIN_CREDENTIALS"):
		return ErrInvalidCredentials
	case strings.Contains(message, "EMAIL_NOT_FOUND"):
		return ErrEmailNotFound
	case strings.Contains(message, "EMAIL_EXISTS"):
		return ErrEmailExists
	case strings.Contains(message, "WEAK_PASSWORD"):
		return ErrWeakPassword
	}
	return nil
}
