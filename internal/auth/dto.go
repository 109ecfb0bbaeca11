package auth

import "github.com/angelmondragon/artcart-backend/internal/users"

// RegisterRequest starts an account registration.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Password string  `json:"password" validate:"required,min=8,max=128"`
}

// VerifyRequest completes a registration with the emailed code.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric"`
}

// ResendRequest asks for a fresh code.
type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterResponse acknowledges a pending registration.
type RegisterResponse struct {
	Email           string `json:"email"`
	OTPExpiresInSec int    `json:"otp_expires_in_seconds"`
}

// LoginResponse contains the access token and the signed-in user.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	User        *users.UserDTO `json:"user"`
}
