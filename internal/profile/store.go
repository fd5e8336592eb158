package profile

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("profile: not found")
	ErrConflict     = errors.New("profile: already exists")
	ErrInvalidInput = errors.New("profile: invalid input")
)

// Update carries partial mutations to a profile. Nil fields are untouched.
type Update struct {
	CustomerTier         *Tier
	DealerAccountRole    *DealerRole
	AccessScope          *AccessScope
	DelegatedPermissions *[]string
	PasswordHash         *string
}

// Store describes persistence operations for customer profiles. The
// authorization evaluator only reads; the provisioning service also writes.
type Store interface {
	Get(ctx context.Context, userID string) (*CustomerProfile, error)
	Create(ctx context.Context, p *CustomerProfile, passwordHash string) error
	Update(ctx context.Context, userID string, upd Update) (*CustomerProfile, error)
	Delete(ctx context.Context, userID string) error
	ListSubAccounts(ctx context.Context, dealerID string) ([]*CustomerProfile, error)
}
