package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ActorID   uuid.UUID
	ActorName string
	Role      enums.ActorRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to supply-chain actors.
type AccessTokenClaims struct {
	ActorID   uuid.UUID       `json:"actor_id"`
	ActorName string          `json:"actor_name"`
	Role      enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
