package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const profileColumns = `user_id, email, customer_tier, is_dealer_sub_account,
	parent_dealer_id, dealer_account_role, access_scope, delegated_permissions,
	created_at, updated_at`

func (s *PGStore) Get(ctx context.Context, userID string) (*CustomerProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+profileColumns+` from customer_profiles where user_id=$1`, userID)
	return scanProfile(row)
}

func (s *PGStore) Create(ctx context.Context, p *CustomerProfile, passwordHash string) error {
	scopeJSON, permsJSON, err := encodeProfileFields(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`insert into customer_profiles
		 (user_id, email, password_hash, customer_tier, is_dealer_sub_account,
		  parent_dealer_id, dealer_account_role, access_scope, delegated_permissions)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.UserID, p.Email, passwordHash, string(p.CustomerTier), p.IsDealerSubAccount,
		nullable(p.ParentDealerID), nullable(string(p.DealerAccountRole)), scopeJSON, permsJSON,
	)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return ErrConflict
	}
	return err
}

func (s *PGStore) Update(ctx context.Context, userID string, upd Update) (*CustomerProfile, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if upd.CustomerTier != nil {
		add("customer_tier", string(*upd.CustomerTier))
	}
	if upd.DealerAccountRole != nil {
		add("dealer_account_role", string(*upd.DealerAccountRole))
	}
	if upd.AccessScope != nil {
		raw, err := json.Marshal(upd.AccessScope)
		if err != nil {
			return nil, err
		}
		add("access_scope", raw)
	}
	if upd.DelegatedPermissions != nil {
		raw, err := json.Marshal(*upd.DelegatedPermissions)
		if err != nil {
			return nil, err
		}
		add("delegated_permissions", raw)
	}
	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	if len(sets) == 0 {
		return s.Get(ctx, userID)
	}
	sets = append(sets, "updated_at=now()")
	args = append(args, userID)

	row := s.db.QueryRowContext(ctx,
		`update customer_profiles set `+strings.Join(sets, ", ")+
			fmt.Sprintf(` where user_id=$%d returning `, len(args))+profileColumns,
		args...,
	)
	return scanProfile(row)
}

func (s *PGStore) Delete(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `delete from customer_profiles where user_id=$1`, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListSubAccounts(ctx context.Context, dealerID string) ([]*CustomerProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+profileColumns+` from customer_profiles
		 where parent_dealer_id=$1 order by created_at`, dealerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*CustomerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*CustomerProfile, error) {
	var (
		p         CustomerProfile
		tier      string
		parentID  sql.NullString
		role      sql.NullString
		scopeJSON []byte
		permsJSON []byte
	)
	err := row.Scan(&p.UserID, &p.Email, &tier, &p.IsDealerSubAccount,
		&parentID, &role, &scopeJSON, &permsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.CustomerTier = Tier(tier)
	if parentID.Valid {
		p.ParentDealerID = parentID.String
	}
	if role.Valid {
		p.DealerAccountRole = DealerRole(role.String)
	}
	if len(scopeJSON) > 0 {
		var scope AccessScope
		if err := json.Unmarshal(scopeJSON, &scope); err != nil {
			return nil, fmt.Errorf("decode access scope: %w", err)
		}
		p.AccessScope = &scope
	}
	if len(permsJSON) > 0 {
		if err := json.Unmarshal(permsJSON, &p.DelegatedPermissions); err != nil {
			return nil, fmt.Errorf("decode delegated permissions: %w", err)
		}
	}
	return &p, nil
}

func encodeProfileFields(p *CustomerProfile) (scopeJSON, permsJSON []byte, err error) {
	if p.AccessScope != nil {
		scopeJSON, err = json.Marshal(p.AccessScope)
		if err != nil {
			return nil, nil, err
		}
	}
	permsJSON, err = json.Marshal(p.DelegatedPermissions)
	if err != nil {
		return nil, nil, err
	}
	return scopeJSON, permsJSON, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
