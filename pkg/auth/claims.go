package auth

import (
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      string
	Role        enums.Role
	Permissions []enums.Permission
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID      string             `json:"user_id"`
	Role        enums.Role         `json:"role"`
	Permissions []enums.Permission `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}
