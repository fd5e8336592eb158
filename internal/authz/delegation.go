package authz

import (
	"fmt"

	"harborlist.org/internal/profile"
)

// ResourceType names the kind of dealer-scoped resource under evaluation.
type ResourceType string

const (
	ResourceListing    ResourceType = "listing"
	ResourceLead       ResourceType = "lead"
	ResourceAnalytics  ResourceType = "analytics"
	ResourceInventory  ResourceType = "inventory"
	ResourcePricing    ResourceType = "pricing"
	ResourceSubAccount ResourceType = "subaccount"
	ResourceProfile    ResourceType = "profile"
)

// Resource identifies the target of a resource-scoped evaluation. OwnerID is
// the owning account id; for a sub-account resource it is the parent-dealer
// chain root, and ParentDealerID carries the target's direct parent.
type Resource struct {
	Type           ResourceType
	ID             string
	OwnerID        string
	ParentDealerID string
}

// Ref renders the resource as the path recorded on decisions and audit
// entries.
func (r Resource) Ref() string {
	if r.ID == "" {
		return string(r.Type)
	}
	return fmt.Sprintf("%s/%s", r.Type, r.ID)
}

// Action names an operation being attempted against a resource.
type Action string

const (
	ActionCreateListing        Action = "listing.create"
	ActionEditListing          Action = "listing.edit"
	ActionDeleteListing        Action = "listing.delete"
	ActionRespondToLead        Action = "lead.respond"
	ActionViewAnalytics        Action = "analytics.view"
	ActionManageInventory      Action = "inventory.manage"
	ActionManagePricing        Action = "pricing.manage"
	ActionManageCommunications Action = "communications.manage"
	ActionCreateSubAccount     Action = "subaccount.create"
	ActionViewSubAccount       Action = "subaccount.view"
	ActionUpdateSubAccount     Action = "subaccount.update"
	ActionDeleteSubAccount     Action = "subaccount.delete"
)

// scopeCategory ties an action class to the AccessScope flag it consumes.
type scopeCategory int

const (
	scopeNone scopeCategory = iota
	scopeListings
	scopeLeads
	scopeAnalytics
	scopeInventory
	scopePricing
	scopeCommunications
)

type actionPolicy struct {
	permission string
	category   scopeCategory
	management bool // sub-account management class (parent-dealer path)
	selfRead   bool // a sub-account may always do this to its own record
}

var actionPolicies = map[Action]actionPolicy{
	ActionCreateListing:        {permission: profile.PermCreateListings, category: scopeListings},
	ActionEditListing:          {permission: profile.PermEditListings, category: scopeListings},
	ActionDeleteListing:        {permission: profile.PermDeleteListings, category: scopeListings},
	ActionRespondToLead:        {permission: profile.PermRespondToLeads, category: scopeLeads},
	ActionViewAnalytics:        {permission: profile.PermViewAnalytics, category: scopeAnalytics},
	ActionManageInventory:      {permission: profile.PermManageInventory, category: scopeInventory},
	ActionManagePricing:        {permission: profile.PermManagePricing, category: scopePricing},
	ActionManageCommunications: {permission: profile.PermManageCommunications, category: scopeCommunications},
	ActionCreateSubAccount:     {permission: profile.PermManageSubAccounts, management: true},
	ActionViewSubAccount:       {permission: profile.PermManageSubAccounts, management: true, selfRead: true},
	ActionUpdateSubAccount:     {permission: profile.PermManageSubAccounts, management: true},
	ActionDeleteSubAccount:     {permission: profile.PermManageSubAccounts, management: true},
}

// PermissionSource records which evaluation rule produced an Allow.
type PermissionSource string

const (
	SourceOwner        PermissionSource = "owner"
	SourceSelf         PermissionSource = "self"
	SourceParentDealer PermissionSource = "parent_dealer"
	SourceDelegated    PermissionSource = "delegated"
)

// Verdict is the outcome of one ownership/delegation evaluation.
type Verdict struct {
	Allowed bool
	Source  PermissionSource
	Code    Code
}

func allowVerdict(source PermissionSource) Verdict {
	return Verdict{Allowed: true, Source: source}
}

func denyVerdict(code Code) Verdict {
	return Verdict{Code: code}
}

// EvaluateOwnership applies the fixed first-match rule order for
// dealer-scoped resources:
//
//  1. direct ownership — the actor owns the resource (or is the
//     parent-chain root of a sub-account resource);
//  2. sub-account self read — a sub-account may always view its own record;
//  3. parent dealer over its own sub-account — the only path allowed to
//     mutate another account's role, scope or permission set;
//  4. delegated permission plus access scope, both of which must hold;
//  5. otherwise FORBIDDEN.
//
// The order never changes and evaluation never revisits an earlier rule.
func EvaluateOwnership(actor *profile.CustomerProfile, res Resource, action Action) Verdict {
	policy, known := actionPolicies[action]
	if !known {
		return denyVerdict(CodeForbidden)
	}

	// Rule 1: direct ownership.
	if res.OwnerID != "" && actor.UserID == res.OwnerID {
		return allowVerdict(SourceOwner)
	}

	// Rule 2: a sub-account reading its own record.
	if policy.selfRead && res.Type == ResourceSubAccount && actor.UserID == res.ID {
		return allowVerdict(SourceSelf)
	}

	// Rule 3: parent dealer acting on its own sub-account.
	if policy.management && res.Type == ResourceSubAccount &&
		!actor.IsDealerSubAccount && actor.CustomerTier.IsDealer() &&
		res.ParentDealerID != "" && res.ParentDealerID == actor.UserID {
		return allowVerdict(SourceParentDealer)
	}

	// Rule 4: sub-account acting on a resource owned by its parent dealer.
	if actor.IsDealerSubAccount && actor.ParentDealerID != "" && actor.ParentDealerID == res.OwnerID {
		perms := actor.EffectivePermissions()
		if _, ok := perms[policy.permission]; !ok {
			return denyVerdict(CodePermissionDenied)
		}
		if !scopeAllows(actor.AccessScope, policy, res) {
			return denyVerdict(CodeScopeRestricted)
		}
		return allowVerdict(SourceDelegated)
	}

	return denyVerdict(CodeForbidden)
}

// scopeAllows checks the access-scope layer under a granted permission. A
// missing scope means unrestricted: restrictions are opt-in by the parent.
func scopeAllows(scope *profile.AccessScope, policy actionPolicy, res Resource) bool {
	if scope == nil {
		return true
	}
	switch policy.category {
	case scopeListings:
		if res.Type == ResourceListing && res.ID != "" {
			return scope.Listings.Contains(res.ID)
		}
		// Actions without a concrete listing (creation) need the
		// unrestricted listing scope.
		return scope.Listings.All
	case scopeLeads:
		return scope.Leads
	case scopeAnalytics:
		return scope.Analytics
	case scopeInventory:
		return scope.Inventory
	case scopePricing:
		return scope.Pricing
	case scopeCommunications:
		return scope.Communications
	default:
		return true
	}
}
