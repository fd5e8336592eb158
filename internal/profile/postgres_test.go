package profile

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var profileCols = []string{
	"user_id", "email", "customer_tier", "is_dealer_sub_account",
	"parent_dealer_id", "dealer_account_role", "access_scope", "delegated_permissions",
	"created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPGStore(db), mock
}

func TestPGStoreGet(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(profileCols).AddRow(
		"sub-1", "sub-1@example.com", "dealer", true,
		"dealer-1", "manager",
		[]byte(`{"listings":["l1"],"leads":true,"analytics":false,"inventory":true,"pricing":true,"communications":true}`),
		[]byte(`["delete_listings"]`),
		now, now,
	)
	mock.ExpectQuery("select (.+) from customer_profiles where user_id=").
		WithArgs("sub-1").WillReturnRows(rows)

	p, err := store.Get(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.CustomerTier != TierDealer || !p.IsDealerSubAccount || p.ParentDealerID != "dealer-1" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.DealerAccountRole != RoleManager {
		t.Fatalf("role not decoded: %+v", p)
	}
	if p.AccessScope == nil || p.AccessScope.Listings.All || !p.AccessScope.Listings.Contains("l1") {
		t.Fatalf("scope not decoded: %+v", p.AccessScope)
	}
	if p.AccessScope.Analytics {
		t.Fatalf("analytics flag lost: %+v", p.AccessScope)
	}
	if len(p.DelegatedPermissions) != 1 || p.DelegatedPermissions[0] != PermDeleteListings {
		t.Fatalf("perms not decoded: %v", p.DelegatedPermissions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGStoreGetNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("select (.+) from customer_profiles where user_id=").
		WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	if _, err := store.Get(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreGetTopLevel(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(profileCols).AddRow(
		"dealer-1", "dealer-1@example.com", "premium_dealer", false,
		nil, nil, nil, []byte(`null`), now, now,
	)
	mock.ExpectQuery("select (.+) from customer_profiles where user_id=").
		WithArgs("dealer-1").WillReturnRows(rows)

	p, err := store.Get(context.Background(), "dealer-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.ParentDealerID != "" || p.DealerAccountRole != "" || p.AccessScope != nil {
		t.Fatalf("null columns must stay zero: %+v", p)
	}
	if p.DelegatedPermissions != nil {
		t.Fatalf("null perms must stay nil: %v", p.DelegatedPermissions)
	}
}

func TestPGStoreCreate(t *testing.T) {
	store, mock := newMockStore(t)
	scope := DefaultAccessScope()
	p := &CustomerProfile{
		UserID: "sub-1", Email: "sub-1@example.com", CustomerTier: TierDealer,
		IsDealerSubAccount: true, ParentDealerID: "dealer-1", DealerAccountRole: RoleStaff,
		AccessScope: &scope,
	}
	mock.ExpectExec("insert into customer_profiles").
		WithArgs("sub-1", "sub-1@example.com", "hash", "dealer", true,
			"dealer-1", "staff", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Create(context.Background(), p, "hash"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGStoreCreateConflict(t *testing.T) {
	store, mock := newMockStore(t)
	p := &CustomerProfile{UserID: "dealer-1", Email: "dealer-1@example.com", CustomerTier: TierDealer}
	mock.ExpectExec("insert into customer_profiles").
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "customer_profiles_pkey"`))

	if err := store.Create(context.Background(), p, "hash"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestPGStoreUpdate(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	role := RoleManager
	perms := []string{PermDeleteListings}

	rows := sqlmock.NewRows(profileCols).AddRow(
		"sub-1", "sub-1@example.com", "dealer", true,
		"dealer-1", "manager", nil, []byte(`["delete_listings"]`), now, now,
	)
	mock.ExpectQuery(`update customer_profiles set dealer_account_role=\$1, delegated_permissions=\$2, updated_at=now\(\) where user_id=\$3 returning`).
		WithArgs("manager", []byte(`["delete_listings"]`), "sub-1").
		WillReturnRows(rows)

	p, err := store.Update(context.Background(), "sub-1", Update{
		DealerAccountRole:    &role,
		DelegatedPermissions: &perms,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.DealerAccountRole != RoleManager {
		t.Fatalf("unexpected profile %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGStoreUpdateNoFieldsFallsBackToGet(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(profileCols).AddRow(
		"sub-1", "sub-1@example.com", "dealer", true,
		"dealer-1", "staff", nil, []byte(`null`), now, now,
	)
	mock.ExpectQuery("select (.+) from customer_profiles where user_id=").
		WithArgs("sub-1").WillReturnRows(rows)

	if _, err := store.Update(context.Background(), "sub-1", Update{}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestPGStoreDelete(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("delete from customer_profiles where user_id=").
		WithArgs("sub-1").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Delete(context.Background(), "sub-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec("delete from customer_profiles where user_id=").
		WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.Delete(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreListSubAccounts(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(profileCols).
		AddRow("sub-1", "sub-1@example.com", "dealer", true, "dealer-1", "staff", nil, []byte(`null`), now, now).
		AddRow("sub-2", "sub-2@example.com", "dealer", true, "dealer-1", "manager", nil, []byte(`null`), now, now)
	mock.ExpectQuery("select (.+) from customer_profiles").
		WithArgs("dealer-1").WillReturnRows(rows)

	subs, err := store.ListSubAccounts(context.Background(), "dealer-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 2 || subs[0].UserID != "sub-1" || subs[1].DealerAccountRole != RoleManager {
		t.Fatalf("unexpected result %+v", subs)
	}
}
