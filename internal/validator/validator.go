package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Error carries per-field validation messages. It is answered with 422.
type Error struct {
	Fields map[string][]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError builds an Error with a single message for one field.
func FieldError(field, msg string) *Error {
	return &Error{Fields: map[string][]string{field: {msg}}}
}

// Validator collects field messages
type Validator struct {
	fields map[string][]string
}

func New() *Validator {
	return &Validator{fields: make(map[string][]string)}
}

// Check records msg against key unless cond holds.
func (v *Validator) Check(cond bool, key, msg string) {
	if cond {
		return
	}
	v.fields[key] = append(v.fields[key], msg)
}

// Valid reports whether no messages were recorded
func (v *Validator) Valid() bool {
	return len(v.fields) == 0
}

// Err returns nil when valid, otherwise an *Error
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &Error{Fields: v.fields}
}

// Required checks that value is present and not blank.
func (v *Validator) Required(key, value string) bool {
	ok := strings.TrimSpace(value) != ""
	v.Check(ok, key, "is required")
	return ok
}

// MaxLength checks value is at most max characters long.
func (v *Validator) MaxLength(key, value string, max int) {
	v.Check(utf8.RuneCountInString(value) <= max, key, fmt.Sprintf("must be at most %d characters", max))
}

// Email checks a required, well-formed address of at most 255 characters.
func (v *Validator) Email(key, value string) {
	if !v.Required(key, value) {
		return
	}
	v.Check(emailRegex.MatchString(value), key, "must be a valid email address")
	v.MaxLength(key, value, 255)
}

// Password checks length bounds in bytes; bcrypt ignores anything past 72.
func (v *Validator) Password(key, value string) {
	if !v.Required(key, value) {
		return
	}
	v.Check(len(value) >= 8, key, "must be at least 8 characters")
	v.Check(len(value) <= 72, key, "must be at most 72 bytes")
}

// In checks that value is one of allowed.
func (v *Validator) In(key, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Check(false, key, "must be one of "+strings.Join(allowed, ", "))
}
