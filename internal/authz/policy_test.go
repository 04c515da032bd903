package authz

import (
	"testing"

	"github.com/agritrace/agritrace-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name   string
		role   enums.ActorRole
		target enums.BatchStatus
		want   bool
	}{
		{"transporter picks up", enums.ActorRoleTransporter, enums.BatchStatusInTransit, true},
		{"wholesaler receives", enums.ActorRoleWholesaler, enums.BatchStatusAtWholesaler, true},
		{"retailer receives", enums.ActorRoleRetailer, enums.BatchStatusAtRetailer, true},
		{"retailer sells", enums.ActorRoleRetailer, enums.BatchStatusSoldToConsumer, true},
		{"admin denied transitions", enums.ActorRoleAdmin, enums.BatchStatusInTransit, false},
		{"farmer cannot ship", enums.ActorRoleFarmer, enums.BatchStatusInTransit, false},
		{"wholesaler cannot sell", enums.ActorRoleWholesaler, enums.BatchStatusSoldToConsumer, false},
		{"consumer denied everywhere", enums.ActorRoleConsumer, enums.BatchStatusAtRetailer, false},
		{"no roles registered for registered", enums.ActorRoleTransporter, enums.BatchStatusRegistered, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.role, tc.target); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.role, tc.target, got, tc.want)
			}
		})
	}
}

func TestCanSetPrice(t *testing.T) {
	if !CanSetPrice(enums.ActorRoleWholesaler) {
		t.Fatal("wholesaler must set pricing")
	}
	if !CanSetPrice(enums.ActorRoleRetailer) {
		t.Fatal("retailer must set pricing")
	}
	if CanSetPrice(enums.ActorRoleFarmer) {
		t.Fatal("farmer must not set pricing")
	}
	if CanSetPrice(enums.ActorRoleAdmin) {
		t.Fatal("admin must not set pricing")
	}
	if CanSetPrice(enums.ActorRoleConsumer) {
		t.Fatal("consumer must not set pricing")
	}
}

func TestRegulatorCapabilities(t *testing.T) {
	if !CanRecall(enums.ActorRoleRegulator) || !CanRecall(enums.ActorRoleAdmin) {
		t.Fatal("regulator and admin must recall")
	}
	if CanRecall(enums.ActorRoleRetailer) {
		t.Fatal("retailer must not recall")
	}
	if !CanManageFairPrices(enums.ActorRoleRegulator) {
		t.Fatal("regulator must manage fair prices")
	}
	if CanManageFairPrices(enums.ActorRoleFarmer) {
		t.Fatal("farmer must not manage fair prices")
	}
}

func TestRegisterAndAppendCapabilities(t *testing.T) {
	if !CanRegister(enums.ActorRoleFarmer) {
		t.Fatal("farmer must register batches")
	}
	if CanRegister(enums.ActorRoleTransporter) {
		t.Fatal("transporter must not register batches")
	}
	if CanRegister(enums.ActorRoleAdmin) {
		t.Fatal("admin must not register batches")
	}
	if CanAddQualityCheck(enums.ActorRoleConsumer) {
		t.Fatal("consumer must not add quality checks")
	}
	if !CanAddQualityCheck(enums.ActorRoleTransporter) {
		t.Fatal("transporter must add quality checks")
	}
	if !CanAddCertification(enums.ActorRoleFarmer) {
		t.Fatal("farmer must add certifications")
	}
	if CanAddCertification(enums.ActorRoleWholesaler) {
		t.Fatal("wholesaler must not add certifications")
	}
}

func TestRolesAllowedForReturnsCopy(t *testing.T) {
	roles := RolesAllowedFor(enums.BatchStatusInTransit)
	if len(roles) != 1 || roles[0] != enums.ActorRoleTransporter {
		t.Fatalf("unexpected roles %v", roles)
	}
	roles[0] = enums.ActorRoleConsumer
	again := RolesAllowedFor(enums.BatchStatusInTransit)
	if again[0] != enums.ActorRoleTransporter {
		t.Fatal("RolesAllowedFor must not expose internal slice")
	}
}
