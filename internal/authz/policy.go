package authz

import (
	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// transitionRoles maps each reachable status to the roles allowed to move a
// batch into it. Roles not listed are denied.
var transitionRoles = map[enums.BatchStatus][]enums.ActorRole{
	enums.BatchStatusInTransit:      {enums.ActorRoleTransporter},
	enums.BatchStatusAtWholesaler:   {enums.ActorRoleWholesaler},
	enums.BatchStatusAtRetailer:     {enums.ActorRoleRetailer},
	enums.BatchStatusSoldToConsumer: {enums.ActorRoleRetailer},
}

// CanTransition reports whether role may move a batch into target. The map
// is deny-by-default: roles without an entry for target, admins included,
// cannot move the batch.
func CanTransition(role enums.ActorRole, target enums.BatchStatus) bool {
	return contains(transitionRoles[target], role)
}

// RolesAllowedFor returns the roles permitted to move a batch into target.
func RolesAllowedFor(target enums.BatchStatus) []enums.ActorRole {
	roles := transitionRoles[target]
	out := make([]enums.ActorRole, len(roles))
	copy(out, roles)
	return out
}

// CanRegister reports whether role may register new batches.
func CanRegister(role enums.ActorRole) bool {
	return role == enums.ActorRoleFarmer
}

// CanSetPrice reports whether role may set batch pricing. Only the actors
// downstream of the farm gate price the chain.
func CanSetPrice(role enums.ActorRole) bool {
	return role == enums.ActorRoleWholesaler || role == enums.ActorRoleRetailer
}

// CanAddQualityCheck reports whether role may append quality checks.
// Consumers only read.
func CanAddQualityCheck(role enums.ActorRole) bool {
	switch role {
	case enums.ActorRoleFarmer,
		enums.ActorRoleTransporter,
		enums.ActorRoleWholesaler,
		enums.ActorRoleRetailer,
		enums.ActorRoleRegulator,
		enums.ActorRoleAdmin:
		return true
	default:
		return false
	}
}

// CanAddCertification reports whether role may attach certificates.
func CanAddCertification(role enums.ActorRole) bool {
	switch role {
	case enums.ActorRoleFarmer, enums.ActorRoleRegulator, enums.ActorRoleAdmin:
		return true
	default:
		return false
	}
}

// CanRecall reports whether role may recall a batch.
func CanRecall(role enums.ActorRole) bool {
	return role == enums.ActorRoleRegulator || role == enums.ActorRoleAdmin
}

// CanManageFairPrices reports whether role may set fair price ranges.
func CanManageFairPrices(role enums.ActorRole) bool {
	return role == enums.ActorRoleRegulator || role == enums.ActorRoleAdmin
}

func contains(roles []enums.ActorRole, role enums.ActorRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
