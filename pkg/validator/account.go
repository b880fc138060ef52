package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyUsername indicates the username is empty
	ErrEmptyUsername = errors.New("username cannot be empty")

	// ErrInvalidUsername indicates the username has characters outside a-z, 0-9, dot, dash and underscore
	ErrInvalidUsername = errors.New("username must be 3-32 characters of a-z, 0-9, '.', '-' or '_'")

	// ErrInvalidEmail indicates the email address is malformed
	ErrInvalidEmail = errors.New("email address is not valid")

	// ErrRecoveryDomain indicates a recovery email outside the accepted domain
	ErrRecoveryDomain = errors.New("recovery email must be a @gmail.com address")

	// ErrPasscodeTooShort indicates the passcode is shorter than MinPasscodeLength
	ErrPasscodeTooShort = errors.New("passcode must be at least 6 characters")

	// ErrPasscodeTooLong indicates the passcode exceeds what bcrypt can hash
	ErrPasscodeTooLong = errors.New("passcode must be at most 72 bytes")

	// ErrPasscodeMismatch indicates the confirmation does not match
	ErrPasscodeMismatch = errors.New("passcodes do not match")
)

const (
	// MinPasscodeLength is the shortest passcode a user may set
	MinPasscodeLength = 6

	// maxPasscodeBytes is the bcrypt input limit
	maxPasscodeBytes = 72

	// RecoveryDomain is the only domain accepted for recovery emails
	RecoveryDomain = "@gmail.com"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-z0-9._-]{3,32}$`)
	emailRegex    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// AccountValidator validates user account fields
type AccountValidator struct{}

// NewAccountValidator creates a new account validator instance
func NewAccountValidator() *AccountValidator {
	return &AccountValidator{}
}

// Username validates a login name and returns it trimmed
func (v *AccountValidator) Username(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrEmptyUsername
	}
	if !usernameRegex.MatchString(username) {
		return "", ErrInvalidUsername
	}
	return username, nil
}

// Email validates an address and returns it trimmed
func (v *AccountValidator) Email(email string) (string, error) {
	email = strings.TrimSpace(email)
	if !emailRegex.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// RecoveryEmail validates a recovery address, which must be a Gmail account
func (v *AccountValidator) RecoveryEmail(email string) (string, error) {
	email, err := v.Email(email)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.ToLower(email), RecoveryDomain) {
		return "", ErrRecoveryDomain
	}
	return email, nil
}

// Passcode validates a new passcode
func (v *AccountValidator) Passcode(passcode string) error {
	if utf8.RuneCountInString(passcode) < MinPasscodeLength {
		return ErrPasscodeTooShort
	}
	if len(passcode) > maxPasscodeBytes {
		return ErrPasscodeTooLong
	}
	return nil
}

// PasscodeWithConfirmation validates a new passcode and its repeated entry
func (v *AccountValidator) PasscodeWithConfirmation(passcode, confirm string) error {
	if passcode != confirm {
		return ErrPasscodeMismatch
	}
	return v.Passcode(passcode)
}
