package authz

import "strings"

// Pool describes the issuer and audience expected for one trust domain.
type Pool struct {
	Domain   TrustDomain
	Issuer   string
	Audience string
}

// Classify decides which identity pool the verified claims belong to and
// checks it against the pool the endpoint asserted. Classification is a pure
// function of issuer, audience and the pool-discriminating claims — never of
// the endpoint path — so a token replayed against an endpoint that forgot to
// assert its domain still fails here.
//
// Returns CodeCrossPoolAccess when the claim shape or issuer belongs to the
// other pool, CodeInvalidTokenFormat when neither (or both) discriminators
// are present.
func Classify(claims *Claims, expected Pool) (Principal, Code) {
	customerShape := strings.TrimSpace(claims.CustomerType) != ""
	staffShape := claims.Permissions != nil

	// A token with no discriminator must not silently default to a pool,
	// and a token claiming both shapes is equally untrustworthy.
	if customerShape == staffShape {
		return nil, CodeInvalidTokenFormat
	}

	actual := DomainCustomer
	if staffShape {
		actual = DomainStaff
	}
	if actual != expected.Domain {
		return nil, CodeCrossPoolAccess
	}
	if claims.Issuer != expected.Issuer {
		return nil, CodeCrossPoolAccess
	}
	if expected.Audience != "" && !hasAudience(claims, expected.Audience) {
		return nil, CodeCrossPoolAccess
	}

	base := principalBase{
		id:    claims.Subject,
		email: claims.Email,
		raw:   claims,
	}
	if claims.IssuedAt != nil {
		base.issuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		base.expiresAt = claims.ExpiresAt.Time
	}

	if actual == DomainCustomer {
		return Customer{
			principalBase: base,
			CustomerType:  claims.CustomerType,
			TierHint:      claims.TierHint,
		}, ""
	}
	return Staff{
		principalBase: base,
		Department:    claims.Department,
		Permissions:   claims.Permissions,
	}, ""
}

func hasAudience(claims *Claims, audience string) bool {
	for _, aud := range claims.Audience {
		if aud == audience {
			return true
		}
	}
	return false
}
