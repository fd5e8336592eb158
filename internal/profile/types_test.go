package profile

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestListingScopeJSON(t *testing.T) {
	var scope ListingScope
	if err := json.Unmarshal([]byte(`"all"`), &scope); err != nil {
		t.Fatalf("unmarshal all: %v", err)
	}
	if !scope.All || !scope.Contains("anything") {
		t.Fatalf("expected unrestricted scope, got %+v", scope)
	}

	if err := json.Unmarshal([]byte(`["l1","l2"]`), &scope); err != nil {
		t.Fatalf("unmarshal ids: %v", err)
	}
	if scope.All || !scope.Contains("l1") || scope.Contains("l3") {
		t.Fatalf("unexpected scope %+v", scope)
	}

	if err := json.Unmarshal([]byte(`"some"`), &scope); err == nil {
		t.Fatal("expected error for unknown literal")
	}

	raw, err := json.Marshal(ListingScope{All: true})
	if err != nil || string(raw) != `"all"` {
		t.Fatalf("marshal all: %s %v", raw, err)
	}
	raw, err = json.Marshal(ListingScope{IDs: []string{"l1"}})
	if err != nil || string(raw) != `["l1"]` {
		t.Fatalf("marshal ids: %s %v", raw, err)
	}
	raw, err = json.Marshal(ListingScope{})
	if err != nil || string(raw) != `[]` {
		t.Fatalf("marshal empty: %s %v", raw, err)
	}
}

func TestCustomerProfileValidate(t *testing.T) {
	ok := CustomerProfile{
		UserID:             "sub-1",
		CustomerTier:       TierDealer,
		IsDealerSubAccount: true,
		ParentDealerID:     "dealer-1",
		DealerAccountRole:  RoleStaff,
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid sub-account rejected: %v", err)
	}

	missingParent := ok
	missingParent.ParentDealerID = ""
	if err := missingParent.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	missingRole := ok
	missingRole.DealerAccountRole = ""
	if err := missingRole.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	danglingParent := CustomerProfile{UserID: "u1", CustomerTier: TierIndividual, ParentDealerID: "dealer-1"}
	if err := danglingParent.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseTier(t *testing.T) {
	if tier, err := ParseTier(" Premium_Dealer "); err != nil || tier != TierPremiumDealer {
		t.Fatalf("got %q, %v", tier, err)
	}
	if _, err := ParseTier("platinum"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if TierIndividual.IsDealer() {
		t.Fatal("individual is not a dealer tier")
	}
	if !TierPremiumDealer.IsDealer() {
		t.Fatal("premium_dealer is a dealer tier")
	}
}

func TestEffectivePermissions(t *testing.T) {
	sub := CustomerProfile{
		UserID:             "sub-1",
		CustomerTier:       TierDealer,
		IsDealerSubAccount: true,
		ParentDealerID:     "dealer-1",
		DealerAccountRole:  RoleManager,
	}
	perms := sub.EffectivePermissions()
	if _, ok := perms[PermEditListings]; !ok {
		t.Fatal("manager default missing edit_listings")
	}
	if _, ok := perms[PermDeleteListings]; ok {
		t.Fatal("manager default must not include delete_listings")
	}
	if _, ok := perms[PermManageSubAccounts]; ok {
		t.Fatal("manager default must not include manage_sub_accounts")
	}
	if _, ok := perms[PermViewAnalytics]; ok {
		t.Fatal("manager default must not include view_analytics")
	}

	sub.DelegatedPermissions = []string{PermDeleteListings}
	perms = sub.EffectivePermissions()
	if _, ok := perms[PermDeleteListings]; !ok {
		t.Fatal("explicit grant must layer over the role floor")
	}

	admin := sub
	admin.DealerAccountRole = RoleAdmin
	admin.DelegatedPermissions = nil
	perms = admin.EffectivePermissions()
	for _, key := range allPermissions {
		if _, ok := perms[key]; !ok {
			t.Fatalf("admin default missing %s", key)
		}
	}

	topLevel := CustomerProfile{UserID: "dealer-1", CustomerTier: TierDealer}
	if topLevel.EffectivePermissions() != nil {
		t.Fatal("top-level accounts carry no delegated permission set")
	}
}

func TestRoleDefaultPermissionsCopies(t *testing.T) {
	defaults := RoleDefaultPermissions(RoleStaff)
	defaults[0] = "mutated"
	if roleDefaults[RoleStaff][0] == "mutated" {
		t.Fatal("RoleDefaultPermissions must return a copy")
	}
}
