package auth

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength     = 2
	maxNameLength     = 100
	maxEmailLength    = 100
	minPasswordLength = 6
)

func validateRegister(name, email, password, confirmation string) *ValidationError {
	ve := newValidationError()
	switch n := utf8.RuneCountInString(strings.TrimSpace(name)); {
	case n == 0:
		ve.add("name", "The name field is required.")
	case n < minNameLength || n > maxNameLength:
		ve.add("name", "The name must be between 2 and 100 characters.")
	}
	validateEmail(ve, email)
	switch {
	case password == "":
		ve.add("password", "The password field is required.")
	case utf8.RuneCountInString(password) < minPasswordLength:
		ve.add("password", "The password must be at least 6 characters.")
	case password != confirmation:
		ve.add("password", "The password confirmation does not match.")
	}
	if ve.empty() {
		return nil
	}
	return ve
}

// validateLogin only checks shape, not the register-time password policy: a
// short password must fail as wrong credentials, not as malformed input.
func validateLogin(email, password string) *ValidationError {
	ve := newValidationError()
	validateEmail(ve, email)
	if password == "" {
		ve.add("password", "The password field is required.")
	}
	if ve.empty() {
		return nil
	}
	return ve
}

func validateEmail(ve *ValidationError, email string) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		ve.add("email", "The email field is required.")
		return
	}
	if utf8.RuneCountInString(trimmed) > maxEmailLength {
		ve.add("email", "The email may not be greater than 100 characters.")
		return
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || !strings.Contains(trimmed, "@") {
		ve.add("email", "The email must be a valid email address.")
	}
}

// normalizeEmail lowercases and trims an email so uniqueness and lookups are
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
