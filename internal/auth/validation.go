package auth

import (
	"github.com/taskhub-io/taskhub/internal/validator"
)

// RegisterInput is the body of a registration request
type RegisterInput struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Validate checks every field and reports all failures at once
func (in RegisterInput) Validate() error {
	v := validator.New()
	if v.Required("name", in.Name) {
		v.MaxLength("name", in.Name, 255)
	}
	v.Email("email", in.Email)
	v.Password("password", in.Password)
	v.Check(in.Password == in.PasswordConfirmation, "password", "confirmation does not match")
	return v.Err()
}

// LoginInput is the body of a login request
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks presence only; format problems surface as invalid credentials
func (in LoginInput) Validate() error {
	v := validator.New()
	v.Required("email", in.Email)
	v.Required("password", in.Password)
	return v.Err()
}
