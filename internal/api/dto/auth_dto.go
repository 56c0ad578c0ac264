package dto

import "time"

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CustomerLoginRequest payload for requesting a one-time code.
type CustomerLoginRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=20"`
}

// CustomerVerifyRequest payload for verifying a one-time code.
type CustomerVerifyRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=20"`
	Otp   string `json:"otp" validate:"required,max=4"`
}

// TokenPairResponse standard response for login endpoints.
type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AccessTokenResponse response for refresh-token exchange.
type AccessTokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}
