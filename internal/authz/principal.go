package authz

import "time"

// TrustDomain names one of the two disjoint identity pools.
type TrustDomain string

const (
	DomainCustomer TrustDomain = "customer"
	DomainStaff    TrustDomain = "staff"
)

// Principal is the authenticated actor for one request. It is a sealed
// two-variant union: every consumer switches on the concrete type, so a
// handler cannot forget which pool it is dealing with. Principals are built
// once per request from verified claims and never persisted.
type Principal interface {
	ID() string
	Domain() TrustDomain
	Email() string
	IssuedAt() time.Time
	ExpiresAt() time.Time

	sealed()
}

type principalBase struct {
	id        string
	email     string
	issuedAt  time.Time
	expiresAt time.Time
	raw       *Claims
}

func (p principalBase) ID() string           { return p.id }
func (p principalBase) Email() string        { return p.email }
func (p principalBase) IssuedAt() time.Time  { return p.issuedAt }
func (p principalBase) ExpiresAt() time.Time { return p.expiresAt }
func (p principalBase) RawClaims() *Claims   { return p.raw }
func (principalBase) sealed()                {}

// Customer is a customer-pool principal. Tier carried here is a claim hint
// only; the profile store is authoritative.
type Customer struct {
	principalBase
	CustomerType string
	TierHint     string
}

func (Customer) Domain() TrustDomain { return DomainCustomer }

// Staff is a staff-pool principal with token-carried permissions.
type Staff struct {
	principalBase
	Department  string
	Permissions []string
}

func (Staff) Domain() TrustDomain { return DomainStaff }

// HasPermission reports whether the staff token carries the permission. The
// wildcard entry "*" grants everything.
func (s Staff) HasPermission(key string) bool {
	for _, p := range s.Permissions {
		if p == key || p == "*" {
			return true
		}
	}
	return false
}
