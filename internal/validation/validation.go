// Package validation checks user-entered form fields and collects per-field
// messages.
package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var ErrValidation = errors.New("validation failed")

var (
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

const (
	MsgPhoneRequired   = "Phone number is required"
	MsgPhoneInvalid    = "Please enter a valid 10-digit phone number"
	MsgEmailInvalid    = "Please enter a valid email address"
	MsgNameRequired    = "Name is required"
	MsgNameLength      = "Name must be between 2-50 characters"
	MsgShopNameMissing = "Shop name is required"
	MsgShopNameLength  = "Shop name must be between 3-100 characters"
	MsgAddressRequired = "Address is required"
	MsgAddressLength   = "Address must be between 10-200 characters"
)

// Errors maps a form field to its message. It matches ErrValidation with errors.Is.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool {
	return target == ErrValidation
}

// Add records msg for field unless msg is empty.
func (e Errors) Add(field, msg string) {
	if msg != "" {
		e[field] = msg
	}
}

// Err returns nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}

func IsPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

func Phone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return MsgPhoneRequired
	}
	if !IsPhone(phone) {
		return MsgPhoneInvalid
	}
	return ""
}

// Email is optional; only a non-empty value is checked.
func Email(email string) string {
	if email != "" && !emailPattern.MatchString(email) {
		return MsgEmailInvalid
	}
	return ""
}

func Name(name string) string {
	if name == "" {
		return MsgNameRequired
	}
	if !between(name, 2, 50) {
		return MsgNameLength
	}
	return ""
}

func ShopName(name string) string {
	if name == "" {
		return MsgShopNameMissing
	}
	if !between(name, 3, 100) {
		return MsgShopNameLength
	}
	return ""
}

func Address(address string) string {
	if address == "" {
		return MsgAddressRequired
	}
	if !between(address, 10, 200) {
		return MsgAddressLength
	}
	return ""
}

func between(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= lo && n <= hi
}
