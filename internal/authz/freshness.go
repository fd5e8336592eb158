package authz

import "time"

// DefaultStaffSessionTTL is the operational ceiling on staff session age.
// Staff credentials carry elevated privilege and must re-authenticate on a
// fixed cadence even when the token's own expiry is provisioned longer.
const DefaultStaffSessionTTL = 8 * time.Hour

// CheckFreshness enforces the staff session TTL. Customer principals are not
// subject to the gate: their token expiry is authoritative.
func CheckFreshness(p Principal, now time.Time, staffTTL time.Duration) Code {
	staff, ok := p.(Staff)
	if !ok {
		return ""
	}
	if staffTTL <= 0 {
		staffTTL = DefaultStaffSessionTTL
	}
	if now.Sub(staff.IssuedAt()) > staffTTL {
		return CodeSessionExpired
	}
	return ""
}
