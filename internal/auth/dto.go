package auth

import "time"

// LoginRequest captures the operator password sent to the login endpoint.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token produced by a successful login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
