package profile

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"harborlist.org/internal/ids"
)

// Service provisions and mutates dealer sub-accounts. Authorization for
// these operations happens at the API boundary; the service enforces data
// invariants only (parent exists, no nesting, known roles and permissions).
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidInput)
	}
	return &Service{store: store}, nil
}

// Get returns a profile by user id.
func (s *Service) Get(ctx context.Context, userID string) (*CustomerProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	return s.store.Get(ctx, userID)
}

// CreateSubAccountInput describes a sub-account to provision.
type CreateSubAccountInput struct {
	Email            string
	Password         string
	Role             string
	AccessScope      *AccessScope
	ExtraPermissions []string
}

// CreateSubAccount provisions a sub-account under the given dealer. The
// parent must be a dealer-tier account that is not itself a sub-account.
func (s *Service) CreateSubAccount(ctx context.Context, dealerID string, in CreateSubAccountInput) (*CustomerProfile, error) {
	dealerID = strings.TrimSpace(dealerID)
	if dealerID == "" {
		return nil, fmt.Errorf("%w: dealer_id is required", ErrInvalidInput)
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	role, err := ParseDealerRole(in.Role)
	if err != nil {
		return nil, err
	}
	extras, err := normalizePermissions(in.ExtraPermissions)
	if err != nil {
		return nil, err
	}

	parent, err := s.store.Get(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	if !parent.CustomerTier.IsDealer() {
		return nil, fmt.Errorf("%w: parent account is not a dealer", ErrInvalidInput)
	}
	if parent.IsDealerSubAccount {
		return nil, fmt.Errorf("%w: sub-accounts cannot own sub-accounts", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	scope := in.AccessScope
	if scope == nil {
		def := DefaultAccessScope()
		scope = &def
	}
	p := &CustomerProfile{
		UserID:               ids.New(),
		Email:                email,
		CustomerTier:         parent.CustomerTier,
		IsDealerSubAccount:   true,
		ParentDealerID:       parent.UserID,
		DealerAccountRole:    role,
		AccessScope:          scope,
		DelegatedPermissions: extras,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p, string(hash)); err != nil {
		return nil, err
	}
	return p, nil
}

// ListSubAccounts returns the dealer's sub-accounts.
func (s *Service) ListSubAccounts(ctx context.Context, dealerID string) ([]*CustomerProfile, error) {
	dealerID = strings.TrimSpace(dealerID)
	if dealerID == "" {
		return nil, fmt.Errorf("%w: dealer_id is required", ErrInvalidInput)
	}
	return s.store.ListSubAccounts(ctx, dealerID)
}

// UpdateSubAccountInput carries partial sub-account mutations.
type UpdateSubAccountInput struct {
	Role             *string
	AccessScope      *AccessScope
	ExtraPermissions *[]string
	Password         *string
}

// UpdateSubAccount mutates a sub-account's role, scope, extra permissions or
// password. Only sub-accounts can be updated through this path.
func (s *Service) UpdateSubAccount(ctx context.Context, userID string, in UpdateSubAccountInput) (*CustomerProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	current, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !current.IsDealerSubAccount {
		return nil, fmt.Errorf("%w: account is not a sub-account", ErrInvalidInput)
	}

	var upd Update
	if in.Role != nil {
		role, err := ParseDealerRole(*in.Role)
		if err != nil {
			return nil, err
		}
		upd.DealerAccountRole = &role
	}
	if in.AccessScope != nil {
		upd.AccessScope = in.AccessScope
	}
	if in.ExtraPermissions != nil {
		extras, err := normalizePermissions(*in.ExtraPermissions)
		if err != nil {
			return nil, err
		}
		upd.DelegatedPermissions = &extras
	}
	if in.Password != nil {
		if strings.TrimSpace(*in.Password) == "" {
			return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		upd.PasswordHash = &hashed
	}
	return s.store.Update(ctx, userID, upd)
}

// DeleteSubAccount removes a sub-account. Hard delete; there is no
// tombstone.
func (s *Service) DeleteSubAccount(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	current, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !current.IsDealerSubAccount {
		return fmt.Errorf("%w: account is not a sub-account", ErrInvalidInput)
	}
	return s.store.Delete(ctx, userID)
}

func normalizePermissions(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(keys))
	var normalized []string
	for _, key := range keys {
		key = strings.TrimSpace(strings.ToLower(key))
		if key == "" {
			continue
		}
		if !KnownPermission(key) {
			return nil, fmt.Errorf("%w: unknown permission %q", ErrInvalidInput, key)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}
	return normalized, nil
}
