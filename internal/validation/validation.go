// Package validation holds the field-level checks shared by the registration,
// account, inventory and record forms.
package validation

import (
	"regexp"
	"sort"
	"strings"
)

var (
	namePattern  = regexp.MustCompile(`^[A-Za-z]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

const MinPasswordLength = 6

// FieldErrors maps a field name to the message shown next to it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has one.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// Required adds a message when value is blank and reports whether it was present.
func (fe FieldErrors) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		fe.Add(field, "is required")
		return false
	}
	return true
}

// Err returns nil when nothing was recorded.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func IsName(s string) bool  { return namePattern.MatchString(s) }
func IsPhone(s string) bool { return phonePattern.MatchString(s) }
func IsEmail(s string) bool { return emailPattern.MatchString(s) }

// Name checks a first or last name: letters only.
func (fe FieldErrors) Name(field, value string) {
	if fe.Required(field, value) && !IsName(strings.TrimSpace(value)) {
		fe.Add(field, "must contain letters only")
	}
}

func (fe FieldErrors) Phone(field, value string) {
	if fe.Required(field, value) && !IsPhone(strings.TrimSpace(value)) {
		fe.Add(field, "must be 7 to 15 digits, optionally starting with +")
	}
}

func (fe FieldErrors) Email(field, value string) {
	if fe.Required(field, value) && !IsEmail(strings.TrimSpace(value)) {
		fe.Add(field, "is not a valid email address")
	}
}

// Password enforces the minimum length and, when confirmField is set, the confirmation match.
func (fe FieldErrors) Password(field, value, confirmField, confirm string) {
	if len(value) < MinPasswordLength {
		fe.Add(field, "must be at least 6 characters")
	}
	if confirmField != "" && value != confirm {
		fe.Add(confirmField, "does not match password")
	}
}
