package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"harborlist.org/internal/audit"
	"harborlist.org/internal/obs"
	"harborlist.org/internal/profile"
)

// DefaultLookupTimeout bounds the profile-store read inside one evaluation.
// On expiry the evaluation fails closed rather than hanging the request
// pipeline.
const DefaultLookupTimeout = 300 * time.Millisecond

// Request describes one authorization evaluation: the bearer token, the pool
// the endpoint asserts, and the optional tier gate and resource target.
type Request struct {
	Token  string
	Domain TrustDomain

	Action   Action
	Resource *Resource

	// RequiredTiers gates the operation on the account's commercial tier
	// (customer domain only). Empty means no tier requirement.
	RequiredTiers []profile.Tier

	IPAddress string
	UserAgent string
}

func (r Request) resourceRef() string {
	if r.Resource != nil {
		return r.Resource.Ref()
	}
	return string(r.Action)
}

// Service evaluates authorization requests. Evaluations are stateless and
// idempotent: two evaluations of the same request with no intervening state
// change yield the same decision.
type Service struct {
	verifier TokenVerifier
	profiles profile.Store
	recorder *audit.Recorder

	pools           map[TrustDomain]Pool
	staffSessionTTL time.Duration
	lookupTimeout   time.Duration
	now             func() time.Time
}

// Option configures Service behavior.
type Option func(*Service) error

// WithPool registers the issuer/audience expected for one trust domain.
func WithPool(pool Pool) Option {
	return func(s *Service) error {
		if pool.Domain != DomainCustomer && pool.Domain != DomainStaff {
			return fmt.Errorf("authz: unknown trust domain %q", pool.Domain)
		}
		if pool.Issuer == "" {
			return errors.New("authz: pool issuer is required")
		}
		s.pools[pool.Domain] = pool
		return nil
	}
}

// WithAuditRecorder wires the decision audit trail.
func WithAuditRecorder(recorder *audit.Recorder) Option {
	return func(s *Service) error {
		s.recorder = recorder
		return nil
	}
}

// WithStaffSessionTTL overrides the staff session age ceiling.
func WithStaffSessionTTL(ttl time.Duration) Option {
	return func(s *Service) error {
		if ttl > 0 {
			s.staffSessionTTL = ttl
		}
		return nil
	}
}

// WithLookupTimeout overrides the profile lookup budget.
func WithLookupTimeout(timeout time.Duration) Option {
	return func(s *Service) error {
		if timeout > 0 {
			s.lookupTimeout = timeout
		}
		return nil
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs the evaluator. Both pools must be registered before
// the service evaluates requests against them.
func NewService(verifier TokenVerifier, profiles profile.Store, opts ...Option) (*Service, error) {
	if verifier == nil {
		return nil, errors.New("authz: token verifier is required")
	}
	if profiles == nil {
		return nil, errors.New("authz: profile store is required")
	}
	s := &Service{
		verifier:        verifier,
		profiles:        profiles,
		pools:           make(map[TrustDomain]Pool, 2),
		staffSessionTTL: DefaultStaffSessionTTL,
		lookupTimeout:   DefaultLookupTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Authorize runs the full evaluation pipeline and emits exactly one audit
// entry per call. The returned decision is final for this request: it is
// never revoked mid-request and never reused across requests.
func (s *Service) Authorize(ctx context.Context, req Request) (Decision, Principal) {
	start := s.now()
	decision, principal := s.evaluate(ctx, req)
	obs.ObserveDecision(string(decision.Effect), string(decision.ErrorCode), s.now().Sub(start))

	s.recorder.Record(audit.Entry{
		PrincipalID: decision.PrincipalID,
		Email:       principalEmail(principal),
		Action:      string(req.Action),
		Resource:    decision.Resource,
		Effect:      string(decision.Effect),
		ErrorCode:   string(decision.ErrorCode),
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
	})
	return decision, principal
}

func (s *Service) evaluate(ctx context.Context, req Request) (Decision, Principal) {
	resource := req.resourceRef()

	claims, err := s.verifier.Verify(ctx, req.Token)
	if err != nil {
		if errors.Is(err, ErrMalformedToken) {
			return denyDecision("anonymous", resource, CodeInvalidTokenFormat), nil
		}
		return denyDecision("anonymous", resource, CodeInvalidToken), nil
	}

	pool, ok := s.pools[req.Domain]
	if !ok {
		// An endpoint evaluated against an unconfigured pool fails closed.
		return denyDecision(claims.Subject, resource, CodeForbidden), nil
	}
	principal, code := Classify(claims, pool)
	if code != "" {
		return denyDecision(claims.Subject, resource, code), nil
	}

	if code := CheckFreshness(principal, s.now(), s.staffSessionTTL); code != "" {
		return denyDecision(principal.ID(), resource, code), principal
	}

	switch p := principal.(type) {
	case Staff:
		return s.evaluateStaff(p, req, resource), principal
	case Customer:
		return s.evaluateCustomer(ctx, p, req, resource), principal
	default:
		return denyDecision(principal.ID(), resource, CodeForbidden), principal
	}
}

// evaluateStaff checks the token-carried permission list. Staff fine-grained
// authorization rides on the claims themselves; there is no staff profile
// store.
func (s *Service) evaluateStaff(p Staff, req Request, resource string) Decision {
	if req.Action != "" && !p.HasPermission(string(req.Action)) {
		d := denyDecision(p.ID(), resource, CodePermissionDenied)
		d.setContext(CtxTrustDomain, string(DomainStaff))
		return d
	}
	d := allowDecision(p.ID(), resource)
	d.setContext(CtxTrustDomain, string(DomainStaff))
	d.setContext(CtxRole, p.Department)
	return d
}

func (s *Service) evaluateCustomer(ctx context.Context, p Customer, req Request, resource string) Decision {
	needsProfile := len(req.RequiredTiers) > 0 || req.Resource != nil
	if !needsProfile {
		d := allowDecision(p.ID(), resource)
		d.setContext(CtxTrustDomain, string(DomainCustomer))
		d.setContext(CtxCustomerType, p.CustomerType)
		d.setContext(CtxTier, p.TierHint)
		return d
	}

	record, code := s.lookupProfile(ctx, p.ID())
	if code != "" {
		return denyDecision(p.ID(), resource, code)
	}

	if len(req.RequiredTiers) > 0 && !tierAllowed(record.CustomerTier, req.RequiredTiers) {
		d := denyDecision(p.ID(), resource, CodeInsufficientTier)
		d.setContext(CtxTrustDomain, string(DomainCustomer))
		d.setContext(CtxTier, string(record.CustomerTier))
		d.setContext(CtxRequiredTier, string(req.RequiredTiers[0]))
		d.setContext(CtxUpgradeRequired, "true")
		return d
	}

	if req.Resource != nil {
		res := *req.Resource
		if code := s.resolveResource(ctx, &res); code != "" {
			return denyDecision(p.ID(), resource, code)
		}
		verdict := EvaluateOwnership(record, res, req.Action)
		if !verdict.Allowed {
			d := denyDecision(p.ID(), resource, verdict.Code)
			d.setContext(CtxTrustDomain, string(DomainCustomer))
			d.setContext(CtxTier, string(record.CustomerTier))
			d.setContext(CtxRole, string(record.DealerAccountRole))
			return d
		}
		d := allowDecision(p.ID(), resource)
		d.setContext(CtxTrustDomain, string(DomainCustomer))
		d.setContext(CtxCustomerType, p.CustomerType)
		d.setContext(CtxTier, string(record.CustomerTier))
		d.setContext(CtxRole, string(record.DealerAccountRole))
		d.setContext(CtxPermissionSource, string(verdict.Source))
		return d
	}

	d := allowDecision(p.ID(), resource)
	d.setContext(CtxTrustDomain, string(DomainCustomer))
	d.setContext(CtxCustomerType, p.CustomerType)
	d.setContext(CtxTier, string(record.CustomerTier))
	return d
}

// resolveResource fills the parent linkage for a sub-account resource named
// only by id. Resolution runs inside the evaluation, after credential
// verification, so a probe for a nonexistent id is denied with
// PROFILE_NOT_FOUND and audited instead of being answered at the transport
// layer. A top-level account is not addressable as a sub-account resource.
func (s *Service) resolveResource(ctx context.Context, res *Resource) Code {
	if res.Type != ResourceSubAccount || res.ID == "" || res.OwnerID != "" {
		return ""
	}
	target, code := s.lookupProfile(ctx, res.ID)
	if code != "" {
		return code
	}
	if !target.IsDealerSubAccount {
		return CodeProfileNotFound
	}
	res.OwnerID = target.ParentDealerID
	res.ParentDealerID = target.ParentDealerID
	return ""
}

// lookupProfile reads the authoritative record under the lookup budget.
// Claim-carried tier hints are advisory only; tier can change between token
// issuance and request time. Store failures fail closed with a code the
// caller can distinguish for retry.
func (s *Service) lookupProfile(ctx context.Context, userID string) (*profile.CustomerProfile, Code) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	record, err := s.profiles.Get(lookupCtx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, CodeProfileNotFound
		}
		obs.LogError("profile lookup failed", map[string]any{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, CodeTierCheckUnavailable
	}
	return record, ""
}

func tierAllowed(tier profile.Tier, required []profile.Tier) bool {
	for _, t := range required {
		if tier == t {
			return true
		}
	}
	return false
}

func principalEmail(p Principal) string {
	if p == nil {
		return ""
	}
	return p.Email()
}
