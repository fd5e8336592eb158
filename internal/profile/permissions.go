package profile

// Delegated permission keys a parent dealer can grant to sub-accounts.
const (
	PermManageSubAccounts    = "manage_sub_accounts"
	PermCreateListings       = "create_listings"
	PermEditListings         = "edit_listings"
	PermDeleteListings       = "delete_listings"
	PermRespondToLeads       = "respond_to_leads"
	PermViewAnalytics        = "view_analytics"
	PermManageInventory      = "manage_inventory"
	PermManagePricing        = "manage_pricing"
	PermManageCommunications = "manage_communications"
)

var allPermissions = []string{
	PermManageSubAccounts,
	PermCreateListings,
	PermEditListings,
	PermDeleteListings,
	PermRespondToLeads,
	PermViewAnalytics,
	PermManageInventory,
	PermManagePricing,
	PermManageCommunications,
}

// Role default sets are fixed policy. They are derived at evaluation time,
// never stored, so a policy change applies to existing sub-accounts too.
// To reduce a sub-account's power, change its role; extras in
// DelegatedPermissions only ever add on top of the role floor.
var roleDefaults = map[DealerRole][]string{
	RoleAdmin: allPermissions,
	RoleManager: {
		PermCreateListings,
		PermEditListings,
		PermRespondToLeads,
		PermManageInventory,
		PermManagePricing,
		PermManageCommunications,
	},
	RoleStaff: {
		PermEditListings,
		PermRespondToLeads,
		PermManageCommunications,
	},
}

// RoleDefaultPermissions returns the fixed default set for a role.
func RoleDefaultPermissions(role DealerRole) []string {
	defaults := roleDefaults[role]
	out := make([]string, len(defaults))
	copy(out, defaults)
	return out
}

// KnownPermission reports whether key names a recognized permission.
func KnownPermission(key string) bool {
	for _, p := range allPermissions {
		if p == key {
			return true
		}
	}
	return false
}

// EffectivePermissions is the union of the role default set and explicitly
// granted extras. Empty for accounts that are not sub-accounts.
func (p *CustomerProfile) EffectivePermissions() map[string]struct{} {
	if !p.IsDealerSubAccount {
		return nil
	}
	set := make(map[string]struct{})
	for _, key := range roleDefaults[p.DealerAccountRole] {
		set[key] = struct{}{}
	}
	for _, key := range p.DelegatedPermissions {
		set[key] = struct{}{}
	}
	return set
}
