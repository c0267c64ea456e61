package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	phoneRegex    = regexp.MustCompile(`^[0-9+\-\s()]+$`)
	otpRegex      = regexp.MustCompile(`^[0-9]+$`)
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateUsername checks the optional username.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-30 letters, numbers or underscores")
	}
	return nil
}

// ValidatePhone checks a phone number for allowed characters.
func ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone is required")
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("invalid phone number")
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidateName checks a first or last name.
func ValidateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < 2 || n > 50 {
		return fmt.Errorf("must be between 2 and 50 characters")
	}
	return nil
}

// ValidateOTPFormat checks a submitted code is numeric with the expected width.
func ValidateOTPFormat(code string, length int) error {
	if len(code) != length || !otpRegex.MatchString(code) {
		return fmt.Errorf("code must be %d digits", length)
	}
	return nil
}

// ValidateCoordinates checks a latitude/longitude pair.
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("invalid coordinates")
	}
	return nil
}

// ValidateOneOf checks value against a closed set.
func ValidateOneOf(value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
	return nil
}
