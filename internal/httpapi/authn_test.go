package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"harborlist.org/internal/authz"
	"harborlist.org/internal/profile"
)

func TestAuthorizeAttachesContextToReturnedRequest(t *testing.T) {
	api := newTestAPI(t, newMemStore(dealer("dealer-1", profile.TierDealer)))

	req := httptest.NewRequest(http.MethodGet, "/v1/dealers/dealer-1/analytics", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken(t, "dealer-1"))
	rec := httptest.NewRecorder()

	out, decision, ok := api.authorize(rec, req, authz.Request{Domain: authz.DomainCustomer})
	if !ok || !decision.Allowed() {
		t.Fatalf("expected Allow, got %+v", decision)
	}

	p, found := authz.PrincipalFromContext(out.Context())
	if !found || p.ID() != "dealer-1" {
		t.Fatalf("principal missing from returned request: %v %v", p, found)
	}
	if _, found := authz.DecisionFromContext(out.Context()); !found {
		t.Fatal("decision missing from returned request")
	}

	// The caller's request is left alone; only the returned one carries the
	// enriched context.
	if _, found := authz.PrincipalFromContext(req.Context()); found {
		t.Fatal("original request must not be mutated")
	}
}

func TestAuthorizeDenyWritesResponse(t *testing.T) {
	api := newTestAPI(t, newMemStore(dealer("dealer-1", profile.TierDealer)))

	req := httptest.NewRequest(http.MethodGet, "/v1/dealers/dealer-1/analytics", nil)
	rec := httptest.NewRecorder()

	out, decision, ok := api.authorize(rec, req, authz.Request{Domain: authz.DomainCustomer})
	if ok || decision.Allowed() {
		t.Fatalf("expected Deny, got %+v", decision)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 written, got %d", rec.Code)
	}
	if _, found := authz.PrincipalFromContext(out.Context()); found {
		t.Fatal("denied requests carry no principal")
	}
}
