package authz

import "context"

type principalContextKey struct{}
type decisionContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	v, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ContextWithDecision stores the evaluation outcome so downstream handlers
// can read the denormalized context map without re-querying the store.
func ContextWithDecision(ctx context.Context, decision Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, decision)
}

// DecisionFromContext returns the decision attached by the authorization
// middleware, if any.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	if ctx == nil {
		return Decision{}, false
	}
	v, ok := ctx.Value(decisionContextKey{}).(Decision)
	return v, ok
}
