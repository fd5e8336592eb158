package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken indicates the bearer value is structurally broken
	// before any cryptographic check happened.
	ErrMalformedToken = errors.New("authz: malformed token")
	// ErrInvalidToken indicates the token failed signature or registered
	// claim validation.
	ErrInvalidToken = errors.New("authz: invalid token")
)

// Claims is the verified claim set shared by both identity pools. Exactly one
// pool discriminator is present on a well-formed token: customer_type for the
// customer pool, a permissions list for the staff pool.
type Claims struct {
	Email        string   `json:"email"`
	CustomerType string   `json:"customer_type,omitempty"`
	TierHint     string   `json:"tier,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
	Department   string   `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates a token's structure and signature and extracts
// claims. Credential issuance lives outside this service; only verification
// is modeled here.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// HSVerifier verifies HS256 tokens using a distinct shared secret per
// issuer. Holding both pools' secrets lets a cross-pool token verify and then
// be rejected by the classifier with a precise error, instead of failing as
// an opaque signature mismatch.
type HSVerifier struct {
	secretsByIssuer map[string][]byte
	now             func() time.Time
}

// NewHSVerifier constructs a verifier from issuer->secret pairs.
func NewHSVerifier(secretsByIssuer map[string]string) (*HSVerifier, error) {
	if len(secretsByIssuer) == 0 {
		return nil, errors.New("authz: at least one issuer secret is required")
	}
	secrets := make(map[string][]byte, len(secretsByIssuer))
	for issuer, secret := range secretsByIssuer {
		issuer = strings.TrimSpace(issuer)
		if issuer == "" || strings.TrimSpace(secret) == "" {
			return nil, errors.New("authz: issuer and secret must be non-empty")
		}
		secrets[issuer] = []byte(secret)
	}
	return &HSVerifier{secretsByIssuer: secrets, now: time.Now}, nil
}

var _ TokenVerifier = (*HSVerifier)(nil)

// Verify checks structure, signature and registered claims. The signing
// secret is selected by the token's own issuer claim; issuer/audience pool
// matching is the classifier's job.
func (v *HSVerifier) Verify(_ context.Context, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" || strings.Count(token, ".") != 2 {
		return nil, ErrMalformedToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		claims, ok := t.Claims.(*Claims)
		if !ok {
			return nil, ErrInvalidToken
		}
		secret, ok := v.secretsByIssuer[claims.Issuer]
		if !ok {
			return nil, fmt.Errorf("%w: unknown issuer", ErrInvalidToken)
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, ErrMalformedToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := v.validateRegistered(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *HSVerifier) validateRegistered(claims *Claims) error {
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := v.now().UTC()
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
