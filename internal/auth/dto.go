package auth

import (
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/internal/users"
)

// RegisterRequest creates a customer account with a local password.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required"`
	Password    string  `json:"password" validate:"required"`
	DisplayName string  `json:"display_name"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// FederatedRequest carries an identity-provider ID token.
type FederatedRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// RefreshRequest pairs the last access token (expired is fine) with its
// refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by every sign-in flow. Redirect is the role's
// landing path.
type AuthResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	Session      *sessions.Session `json:"session"`
	Redirect     string            `json:"redirect"`
	User         *users.UserDTO    `json:"user"`
}
