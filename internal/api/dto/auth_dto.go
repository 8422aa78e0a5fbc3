package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/repair-report-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks field presence; domain rules (institution domain,
// password policy) are enforced by the auth service.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// CheckEmailRequest payload.
type CheckEmailRequest struct {
	Email string `json:"email"`
}

// Validate checks field presence.
func (r CheckEmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks field presence.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// MessageResponse carries a user-facing status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// CheckEmailResponse reports address availability.
type CheckEmailResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// LoginResponse carries the session token and the public user view.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// VerifyResponse wraps the re-resolved user record.
type VerifyResponse struct {
	User UserResponse `json:"user"`
}

// NewUserResponse maps a domain user. The password hash is never exposed.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	}
}
