package profile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type memStore struct {
	mu     sync.Mutex
	byID   map[string]*CustomerProfile
	hashes map[string]string
}

func newMemStore(profiles ...*CustomerProfile) *memStore {
	s := &memStore{byID: make(map[string]*CustomerProfile), hashes: make(map[string]string)}
	for _, p := range profiles {
		s.byID[p.UserID] = p
	}
	return s
}

func (s *memStore) Get(_ context.Context, userID string) (*CustomerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *memStore) Create(_ context.Context, p *CustomerProfile, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.UserID]; ok {
		return ErrConflict
	}
	clone := *p
	s.byID[p.UserID] = &clone
	s.hashes[p.UserID] = passwordHash
	return nil
}

func (s *memStore) Update(_ context.Context, userID string, upd Update) (*CustomerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.CustomerTier != nil {
		p.CustomerTier = *upd.CustomerTier
	}
	if upd.DealerAccountRole != nil {
		p.DealerAccountRole = *upd.DealerAccountRole
	}
	if upd.AccessScope != nil {
		p.AccessScope = upd.AccessScope
	}
	if upd.DelegatedPermissions != nil {
		p.DelegatedPermissions = *upd.DelegatedPermissions
	}
	if upd.PasswordHash != nil {
		s.hashes[userID] = *upd.PasswordHash
	}
	clone := *p
	return &clone, nil
}

func (s *memStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[userID]; !ok {
		return ErrNotFound
	}
	delete(s.byID, userID)
	return nil
}

func (s *memStore) ListSubAccounts(_ context.Context, dealerID string) ([]*CustomerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*CustomerProfile
	for _, p := range s.byID {
		if p.IsDealerSubAccount && p.ParentDealerID == dealerID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

var _ Store = (*memStore)(nil)

func testDealer(id string, tier Tier) *CustomerProfile {
	return &CustomerProfile{UserID: id, Email: id + "@example.com", CustomerTier: tier}
}

func TestCreateSubAccount(t *testing.T) {
	store := newMemStore(testDealer("dealer-1", TierPremiumDealer))
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	created, err := svc.CreateSubAccount(context.Background(), "dealer-1", CreateSubAccountInput{
		Email:            "Sales@Example.COM",
		Password:         "hunter2hunter2",
		Role:             "Manager",
		ExtraPermissions: []string{"Delete_Listings", "delete_listings"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.UserID == "" {
		t.Fatal("expected generated user id")
	}
	if created.Email != "sales@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}
	if created.CustomerTier != TierPremiumDealer {
		t.Fatalf("tier must be inherited from the parent, got %q", created.CustomerTier)
	}
	if !created.IsDealerSubAccount || created.ParentDealerID != "dealer-1" {
		t.Fatalf("linkage wrong: %+v", created)
	}
	if created.DealerAccountRole != RoleManager {
		t.Fatalf("role not normalized: %q", created.DealerAccountRole)
	}
	if len(created.DelegatedPermissions) != 1 || created.DelegatedPermissions[0] != PermDeleteListings {
		t.Fatalf("extras not normalized: %v", created.DelegatedPermissions)
	}
	if created.AccessScope == nil || !created.AccessScope.Listings.All {
		t.Fatalf("expected default unrestricted scope, got %+v", created.AccessScope)
	}

	hash := store.hashes[created.UserID]
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2hunter2")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestCreateSubAccountRejectsNonDealerParent(t *testing.T) {
	store := newMemStore(testDealer("user-1", TierIndividual))
	svc, _ := NewService(store)
	_, err := svc.CreateSubAccount(context.Background(), "user-1", CreateSubAccountInput{
		Email: "a@b.com", Password: "pw", Role: "staff",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateSubAccountRejectsNesting(t *testing.T) {
	parent := &CustomerProfile{
		UserID: "sub-1", Email: "sub-1@example.com", CustomerTier: TierDealer,
		IsDealerSubAccount: true, ParentDealerID: "dealer-1", DealerAccountRole: RoleAdmin,
	}
	svc, _ := NewService(newMemStore(parent))
	_, err := svc.CreateSubAccount(context.Background(), "sub-1", CreateSubAccountInput{
		Email: "a@b.com", Password: "pw", Role: "staff",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("sub-accounts cannot own sub-accounts, got %v", err)
	}
}

func TestCreateSubAccountRejectsUnknownPermission(t *testing.T) {
	svc, _ := NewService(newMemStore(testDealer("dealer-1", TierDealer)))
	_, err := svc.CreateSubAccount(context.Background(), "dealer-1", CreateSubAccountInput{
		Email: "a@b.com", Password: "pw", Role: "staff",
		ExtraPermissions: []string{"launch_missiles"},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateSubAccountRejectsUnknownRole(t *testing.T) {
	svc, _ := NewService(newMemStore(testDealer("dealer-1", TierDealer)))
	_, err := svc.CreateSubAccount(context.Background(), "dealer-1", CreateSubAccountInput{
		Email: "a@b.com", Password: "pw", Role: "owner",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateSubAccountMissingParent(t *testing.T) {
	svc, _ := NewService(newMemStore())
	_, err := svc.CreateSubAccount(context.Background(), "ghost", CreateSubAccountInput{
		Email: "a@b.com", Password: "pw", Role: "staff",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSubAccount(t *testing.T) {
	sub := &CustomerProfile{
		UserID: "sub-1", Email: "sub-1@example.com", CustomerTier: TierDealer,
		IsDealerSubAccount: true, ParentDealerID: "dealer-1", DealerAccountRole: RoleStaff,
	}
	svc, _ := NewService(newMemStore(sub))

	role := "manager"
	extras := []string{PermViewAnalytics}
	updated, err := svc.UpdateSubAccount(context.Background(), "sub-1", UpdateSubAccountInput{
		Role:             &role,
		ExtraPermissions: &extras,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DealerAccountRole != RoleManager {
		t.Fatalf("role not updated: %+v", updated)
	}
	if len(updated.DelegatedPermissions) != 1 || updated.DelegatedPermissions[0] != PermViewAnalytics {
		t.Fatalf("extras not updated: %+v", updated)
	}
}

func TestUpdateRejectsTopLevelAccount(t *testing.T) {
	svc, _ := NewService(newMemStore(testDealer("dealer-1", TierDealer)))
	role := "staff"
	_, err := svc.UpdateSubAccount(context.Background(), "dealer-1", UpdateSubAccountInput{Role: &role})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("only sub-accounts are mutable here, got %v", err)
	}
}

func TestDeleteSubAccount(t *testing.T) {
	sub := &CustomerProfile{
		UserID: "sub-1", Email: "sub-1@example.com", CustomerTier: TierDealer,
		IsDealerSubAccount: true, ParentDealerID: "dealer-1", DealerAccountRole: RoleStaff,
	}
	store := newMemStore(testDealer("dealer-1", TierDealer), sub)
	svc, _ := NewService(store)

	if err := svc.DeleteSubAccount(context.Background(), "sub-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(context.Background(), "sub-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}

	if err := svc.DeleteSubAccount(context.Background(), "dealer-1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("top-level accounts are not deletable here, got %v", err)
	}
}

func TestListSubAccounts(t *testing.T) {
	sub := &CustomerProfile{
		UserID: "sub-1", Email: "sub-1@example.com", CustomerTier: TierDealer,
		IsDealerSubAccount: true, ParentDealerID: "dealer-1", DealerAccountRole: RoleStaff,
	}
	svc, _ := NewService(newMemStore(testDealer("dealer-1", TierDealer), sub))
	got, err := svc.ListSubAccounts(context.Background(), "dealer-1")
	if err != nil || len(got) != 1 || got[0].UserID != "sub-1" {
		t.Fatalf("got %v, %v", got, err)
	}
}
