package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tier is a customer account's commercial class.
type Tier string

const (
	TierIndividual    Tier = "individual"
	TierDealer        Tier = "dealer"
	TierPremiumDealer Tier = "premium_dealer"
)

// IsDealer reports whether the tier grants dealer features.
func (t Tier) IsDealer() bool {
	return t == TierDealer || t == TierPremiumDealer
}

// ParseTier validates and normalizes a tier string.
func ParseTier(raw string) (Tier, error) {
	switch Tier(strings.TrimSpace(strings.ToLower(raw))) {
	case TierIndividual:
		return TierIndividual, nil
	case TierDealer:
		return TierDealer, nil
	case TierPremiumDealer:
		return TierPremiumDealer, nil
	default:
		return "", fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, raw)
	}
}

// DealerRole is the role a sub-account holds within its parent dealership.
type DealerRole string

const (
	RoleAdmin   DealerRole = "admin"
	RoleManager DealerRole = "manager"
	RoleStaff   DealerRole = "staff"
)

// ParseDealerRole validates and normalizes a role string.
func ParseDealerRole(raw string) (DealerRole, error) {
	switch DealerRole(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleManager:
		return RoleManager, nil
	case RoleStaff:
		return RoleStaff, nil
	default:
		return "", fmt.Errorf("%w: unknown dealer role %q", ErrInvalidInput, raw)
	}
}

// ListingScope restricts which listings a sub-account may act on: either all
// of the parent dealer's listings or an explicit id set. Serialized as the
// literal string "all" or a JSON array of listing ids.
type ListingScope struct {
	All bool
	IDs []string
}

// Contains reports whether the scope covers the given listing id.
func (s ListingScope) Contains(listingID string) bool {
	if s.All {
		return true
	}
	for _, id := range s.IDs {
		if id == listingID {
			return true
		}
	}
	return false
}

func (s ListingScope) MarshalJSON() ([]byte, error) {
	if s.All {
		return json.Marshal("all")
	}
	if s.IDs == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s.IDs)
}

func (s *ListingScope) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var literal string
		if err := json.Unmarshal(data, &literal); err != nil {
			return err
		}
		if literal != "all" {
			return fmt.Errorf("listing scope: unexpected literal %q", literal)
		}
		*s = ListingScope{All: true}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = ListingScope{IDs: ids}
	return nil
}

// AccessScope narrows which resources a sub-account's delegated permissions
// apply to. Flags are layered under permissions: an action is authorized only
// when both the permission and the matching scope flag hold.
type AccessScope struct {
	Listings       ListingScope `json:"listings"`
	Leads          bool         `json:"leads"`
	Analytics      bool         `json:"analytics"`
	Inventory      bool         `json:"inventory"`
	Pricing        bool         `json:"pricing"`
	Communications bool         `json:"communications"`
}

// DefaultAccessScope grants everything; restrictions are opt-in by the parent
// dealer.
func DefaultAccessScope() AccessScope {
	return AccessScope{
		Listings:       ListingScope{All: true},
		Leads:          true,
		Analytics:      true,
		Inventory:      true,
		Pricing:        true,
		Communications: true,
	}
}

// CustomerProfile is the authoritative commercial record for one customer
// account. Token claims may hint at tier or role, but this record is truth.
type CustomerProfile struct {
	UserID               string       `json:"user_id"`
	Email                string       `json:"email"`
	CustomerTier         Tier         `json:"customer_tier"`
	IsDealerSubAccount   bool         `json:"is_dealer_sub_account"`
	ParentDealerID       string       `json:"parent_dealer_id,omitempty"`
	DealerAccountRole    DealerRole   `json:"dealer_account_role,omitempty"`
	AccessScope          *AccessScope `json:"access_scope,omitempty"`
	DelegatedPermissions []string     `json:"delegated_permissions,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// Validate enforces the sub-account linkage invariant: a sub-account has a
// non-empty parent and a role; a top-level account has neither.
func (p *CustomerProfile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if p.IsDealerSubAccount {
		if strings.TrimSpace(p.ParentDealerID) == "" {
			return fmt.Errorf("%w: sub-account requires parent_dealer_id", ErrInvalidInput)
		}
		if p.DealerAccountRole == "" {
			return fmt.Errorf("%w: sub-account requires dealer_account_role", ErrInvalidInput)
		}
	} else if p.ParentDealerID != "" {
		return fmt.Errorf("%w: parent_dealer_id set on non-sub-account", ErrInvalidInput)
	}
	return nil
}
