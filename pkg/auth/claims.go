package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avelasquez/storefront-backend/pkg/enums"
)

// AccessTokenPayload carries the data minted into an access token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.MemberRole
	JTI    string
}

// AccessTokenClaims are the typed claims embedded in access tokens.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"uid"`
	Role   enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
