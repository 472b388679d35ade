package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
// Token issuance lives in the identity system; this engine mints tokens
// only in tests and trusted tooling.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// IsStaff reports whether the claims authorize fulfillment operations.
func (c *AccessTokenClaims) IsStaff() bool {
	return c != nil && c.Role == enums.UserRoleStaff
}
