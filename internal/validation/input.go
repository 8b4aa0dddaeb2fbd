package validation

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input length limits
const (
	MaxNameLength     = 255
	MaxEmailLength    = 320
	MaxPhoneLength    = 20
	MaxPlayerIDLength = 64
	MinPasswordLength = 8
)

// ValidateName checks a display name. Empty names are rejected when required.
func ValidateName(name string, required bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		if required {
			return fmt.Errorf("name is required")
		}
		return nil
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return fmt.Errorf("name exceeds maximum length of %d characters (got %d)", MaxNameLength, n)
	}
	return nil
}

// ValidateEmail checks that the address is present, not oversized and parseable.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if n := utf8.RuneCountInString(email); n > MaxEmailLength {
		return fmt.Errorf("email exceeds maximum length of %d characters (got %d)", MaxEmailLength, n)
	}
	return ValidateEmailFormat(email)
}

// ValidateEmailFormat validates the format only. Empty is allowed.
func ValidateEmailFormat(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	// Reject "Name <a@b>" forms; the backend wants the bare address.
	if addr.Address != email {
		return fmt.Errorf("invalid email format: expected a bare address")
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidatePhoneFormat allows digits, spaces, dashes, parentheses and a
// leading +. Empty is allowed.
func ValidatePhoneFormat(phone string) error {
	if phone == "" {
		return nil
	}
	if n := utf8.RuneCountInString(phone); n > MaxPhoneLength {
		return fmt.Errorf("phone number exceeds maximum length of %d characters (got %d)", MaxPhoneLength, n)
	}
	for i, r := range phone {
		switch {
		case r == '+' && i == 0:
		case r >= '0' && r <= '9':
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return fmt.Errorf("invalid phone format: contains invalid character '%c'", r)
		}
	}
	return nil
}

// ValidatePlayerID checks the in-game account id a top-up is delivered to.
func ValidatePlayerID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("player id is required")
	}
	if utf8.RuneCountInString(id) > MaxPlayerIDLength {
		return fmt.Errorf("player id exceeds maximum length of %d characters", MaxPlayerIDLength)
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return fmt.Errorf("player id must not contain whitespace")
	}
	return nil
}

// ValidateAmount checks a rupiah amount against a minimum.
func ValidateAmount(amount, minimum int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be a positive number")
	}
	if amount < minimum {
		return fmt.Errorf("minimum amount is %d", minimum)
	}
	return nil
}

// ParsePositiveInt parses a positive integer ID. A leading '#' is ignored.
func ParsePositiveInt(s string, fieldName string) (int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", fieldName, err)
	}
	if id64 <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", fieldName)
	}
	return int(id64), nil
}

// ParseAmount parses a rupiah amount, tolerating "Rp" and thousands dots
// ("Rp 15.000" -> 15000).
func ParseAmount(s string) (int64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "Rp"), "rp")
	clean = strings.NewReplacer(".", "", ",", "", " ", "", "_", "").Replace(clean)
	if clean == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	n, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}
