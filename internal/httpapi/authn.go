package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"harborlist.org/internal/authz"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// authorize runs one evaluation and writes the denial response when the
// decision is not Allow. On Allow the returned request carries the principal
// and decision in its context. A malformed Authorization header is evaluated
// with an empty token so the denial is still assembled and audited by the
// evaluator rather than short-circuited at the transport layer.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, req authz.Request) (*http.Request, authz.Decision, bool) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		token = ""
	}
	req.Token = token
	req.IPAddress = clientIP(r)
	req.UserAgent = r.UserAgent()

	decision, principal := a.authz.Authorize(r.Context(), req)
	if !decision.Allowed() {
		writeDecisionError(w, r, decision)
		return r, decision, false
	}

	ctx := authz.ContextWithPrincipal(r.Context(), principal)
	ctx = authz.ContextWithDecision(ctx, decision)
	return r.WithContext(ctx), decision, true
}

// writeDecisionError maps a Deny onto its HTTP status with both the machine
// code and the render-safe message.
func writeDecisionError(w http.ResponseWriter, r *http.Request, decision authz.Decision) {
	writeJSON(w, decision.HTTPStatus(), map[string]any{
		"error":      decision.UserMessage,
		"code":       string(decision.ErrorCode),
		"context":    decision.Context,
		"request_id": requestIDFromContext(r.Context()),
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
