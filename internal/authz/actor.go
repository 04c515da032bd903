package authz

import (
	"github.com/google/uuid"

	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// Actor is the authenticated principal performing an operation.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role enums.ActorRole
}
