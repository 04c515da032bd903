package enums

import "fmt"

// ActorRole identifies the supply-chain role an authenticated actor holds.
type ActorRole string

const (
	ActorRoleFarmer      ActorRole = "farmer"
	ActorRoleTransporter ActorRole = "transporter"
	ActorRoleWholesaler  ActorRole = "wholesaler"
	ActorRoleRetailer    ActorRole = "retailer"
	ActorRoleConsumer    ActorRole = "consumer"
	ActorRoleRegulator   ActorRole = "regulator"
	ActorRoleAdmin       ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	ActorRoleFarmer,
	ActorRoleTransporter,
	ActorRoleWholesaler,
	ActorRoleRetailer,
	ActorRoleConsumer,
	ActorRoleRegulator,
	ActorRoleAdmin,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
