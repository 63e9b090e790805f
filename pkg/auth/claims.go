package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ruizcommerce/storefront-backend/pkg/enums"
)

// TokenPayload captures the data available when minting a JWT.
type TokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	JTI    string
}

// TokenClaims represents the typed JWT issued to storefront and
// back-office clients.
type TokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims grant back-office access.
func (c *TokenClaims) IsAdmin() bool {
	return c != nil && c.Role.IsAdmin()
}
